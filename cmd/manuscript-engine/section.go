// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-engine/internal/sections"
	"github.com/pdiddy/manuscript-engine/pkg/types"
)

var sectionCmd = &cobra.Command{
	Use:   "section",
	Short: "Draft manuscript sections from stored endpoints",
	Long: `Section builds Methods and Conclusion drafts from endpoints saved during
Results drafting. "prompt" prints the generation prompt that would be sent,
for review or editing; "generate" sends it and prints the assistant's draft.
"results" runs the Results kickoff question and extracts the endpoint
structure from the answer.`,
}

// --- results subcommand ---

var sectionResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Generate the Results answer and extract its endpoints",
	Long: `Results asks the assistant to identify the trial's endpoints, grouped by
category, and parses the endpoint structure out of the answer. When the
structure cannot be parsed the raw answer is still printed so the question
can be regenerated; that is a recoverable outcome, not a failure.`,
	RunE: runSectionResults,
}

func runSectionResults(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")

	s, coord, err := openCoordinator(cmd, documentID)
	if err != nil {
		return err
	}
	defer s.Close()

	out, err := coord.GenerateResults(context.Background(), askMode(cmd))
	if err != nil {
		return err
	}

	fmt.Println(out.Answer.Response)

	if out.ExtractErr != nil {
		fmt.Fprintf(os.Stderr, "\nno endpoints extracted (%v); regenerate and try again\n", out.ExtractErr)
		return nil
	}

	fmt.Fprintln(os.Stderr)
	category := ""
	for _, r := range out.Refs {
		if r.Category != category {
			category = r.Category
			fmt.Fprintf(os.Stderr, "%s:\n", category)
		}
		fmt.Fprintf(os.Stderr, "  - %s\n", r.Name)
	}
	return nil
}

// --- prompt subcommand ---

var sectionPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the generation prompt for a section without sending it",
	Long: `Prompt builds the Methods or Conclusion generation prompt from the selected
endpoints and prints it. With --endpoint-name and --category instead of
--section, prints the canned per-endpoint prompts used during Results
drafting (safety endpoints get the adverse-event extras).`,
	RunE: runSectionPrompt,
}

func runSectionPrompt(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	section, _ := cmd.Flags().GetString("section")
	endpointName, _ := cmd.Flags().GetString("endpoint-name")
	category, _ := cmd.Flags().GetString("category")

	if endpointName != "" {
		for _, p := range sections.EndpointPrompts(category, endpointName) {
			fmt.Println(p)
			fmt.Println()
		}
		return nil
	}

	endpointIDs, _ := cmd.Flags().GetStringArray("endpoint")
	includeSubgroups, _ := cmd.Flags().GetBool("subgroups")
	if len(endpointIDs) == 0 {
		return fmt.Errorf("missing selection: provide --endpoint at least once, or --endpoint-name for canned prompts")
	}

	s, coord, err := openCoordinator(cmd, documentID)
	if err != nil {
		return err
	}
	defer s.Close()

	prompt, err := coord.BuildSectionPrompt(context.Background(), section, endpointIDs, includeSubgroups)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("selection contains unknown endpoints: %w", err)
		}
		return err
	}

	fmt.Println(prompt)
	return nil
}

// --- generate subcommand ---

var sectionGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a Methods or Conclusion draft from selected endpoints",
	Long: `Generate builds the section prompt from the selected endpoints, optionally
appending their subgroup analyses, sends it in the section's conversation
context, and prints the draft.`,
	RunE: runSectionGenerate,
}

func runSectionGenerate(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	section, _ := cmd.Flags().GetString("section")
	endpointIDs, _ := cmd.Flags().GetStringArray("endpoint")
	includeSubgroups, _ := cmd.Flags().GetBool("subgroups")

	if len(endpointIDs) == 0 {
		return fmt.Errorf("missing selection: provide --endpoint at least once")
	}

	s, coord, err := openCoordinator(cmd, documentID)
	if err != nil {
		return err
	}
	defer s.Close()

	answer, err := coord.GenerateSection(context.Background(), section, endpointIDs, includeSubgroups, askMode(cmd))
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
	return nil
}

func init() {
	// Results flags.
	sectionResultsCmd.Flags().String("document", "", "document ID to draft for")
	sectionResultsCmd.Flags().Bool("independent", false, "start a fresh thread instead of continuing")

	// Prompt flags.
	sectionPromptCmd.Flags().String("document", "", "document ID to draft for")
	sectionPromptCmd.Flags().String("section", "methods", "section to build the prompt for (methods or conclusion)")
	sectionPromptCmd.Flags().StringArray("endpoint", nil, "selected endpoint ID (repeatable)")
	sectionPromptCmd.Flags().Bool("subgroups", false, "append subgroup analyses of the selected endpoints")
	sectionPromptCmd.Flags().String("endpoint-name", "", "print the canned per-endpoint prompts for this endpoint name")
	sectionPromptCmd.Flags().String("category", "", "endpoint category for canned prompts (safety adds AE prompts)")

	// Generate flags.
	sectionGenerateCmd.Flags().String("document", "", "document ID to draft for")
	sectionGenerateCmd.Flags().String("section", "methods", "section to generate (methods or conclusion)")
	sectionGenerateCmd.Flags().StringArray("endpoint", nil, "selected endpoint ID (repeatable)")
	sectionGenerateCmd.Flags().Bool("subgroups", false, "append subgroup analyses of the selected endpoints")
	sectionGenerateCmd.Flags().Bool("independent", false, "start a fresh thread instead of continuing")
	sectionGenerateCmd.Flags().Bool("json", false, "output the answer as JSON")

	sectionCmd.AddCommand(sectionResultsCmd)
	sectionCmd.AddCommand(sectionPromptCmd)
	sectionCmd.AddCommand(sectionGenerateCmd)

	rootCmd.AddCommand(sectionCmd)
}
