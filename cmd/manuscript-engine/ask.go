// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-engine/internal/assistant"
	"github.com/pdiddy/manuscript-engine/internal/conversation"
	"github.com/pdiddy/manuscript-engine/internal/pipeline"
	"github.com/pdiddy/manuscript-engine/internal/store"
)

// openCoordinator opens the store, resolves the document, and wires the
// assistant client into a pipeline coordinator. The caller closes the store.
func openCoordinator(cmd *cobra.Command, documentID string) (*store.Store, *pipeline.Coordinator, error) {
	if documentID == "" {
		return nil, nil, fmt.Errorf("missing required flag: --document")
	}

	cfg := pipelineConfig(cmd)
	s, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.GetDocument(context.Background(), documentID)
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	backend := assistant.NewClient(cfg.Assistant)
	return s, pipeline.New(s, backend, doc), nil
}

// askMode maps the --independent flag to a continuity mode.
func askMode(cmd *cobra.Command) conversation.Mode {
	if independent, _ := cmd.Flags().GetBool("independent"); independent {
		return conversation.ModeIndependent
	}
	return conversation.ModeDependent
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the assistant a question in a conversation context",
	Long: `Ask sends a free-form question to the assistant engine inside one of the
document's conversation contexts. Dependent questions (the default) continue
the context's thread; --independent starts fresh and drops the stored thread,
so the next dependent question also starts a new one.

Contexts name who owns the conversation: "general" (the default),
"endpoint:<endpoint-id>", or "section:<section-name>".`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	ownerContext, _ := cmd.Flags().GetString("context")
	if ownerContext == "" {
		ownerContext = conversation.GeneralContext()
	}

	s, coord, err := openCoordinator(cmd, documentID)
	if err != nil {
		return err
	}
	defer s.Close()

	answer, err := coord.Conversation().Ask(context.Background(), ownerContext, args[0], askMode(cmd))
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	fmt.Println(answer.Response)
	for _, c := range answer.Citations {
		fmt.Fprintf(os.Stderr, "  [%s]\n", c)
	}
	if answer.ThreadRef != "" {
		fmt.Fprintf(os.Stderr, "thread: %s\n", answer.ThreadRef)
	}
	return nil
}

func init() {
	askCmd.Flags().String("document", "", "document ID whose threads to use")
	askCmd.Flags().String("context", "", "conversation context (default: general)")
	askCmd.Flags().Bool("independent", false, "start a fresh thread instead of continuing")
	askCmd.Flags().Bool("json", false, "output the answer as JSON")

	rootCmd.AddCommand(askCmd)
}
