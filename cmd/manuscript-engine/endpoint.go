// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-engine/internal/pipeline"
	"github.com/pdiddy/manuscript-engine/internal/store"
	"github.com/pdiddy/manuscript-engine/pkg/types"
)

var endpointCmd = &cobra.Command{
	Use:   "endpoint",
	Short: "Manage stored endpoints (save, catalog, history)",
	Long: `Endpoint manages the per-document endpoint store. Save upserts the latest
response for a (category, name) bullet and appends to the response ledger;
catalog groups stored endpoints by category for Methods and Conclusion;
history lists the append-only ledger for one endpoint.`,
}

// --- save subcommand ---

var endpointSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save an assistant response for one endpoint",
	Long: `Save upserts the endpoint row for (document, category, name) and appends a
ledger record, atomically. Saving the same triple again updates the stored
response in place; the ledger keeps every response ever saved. Prompts that
ask for subgroup analyses are detected from the prompt text and tagged in the
ledger without touching the endpoint's main narrative.`,
	RunE: runEndpointSave,
}

func runEndpointSave(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	category, _ := cmd.Flags().GetString("category")
	name, _ := cmd.Flags().GetString("name")
	promptText, _ := cmd.Flags().GetString("prompt")
	responseBody, _ := cmd.Flags().GetString("response")
	responseFile, _ := cmd.Flags().GetString("response-file")
	citations, _ := cmd.Flags().GetStringArray("citation")
	threadRef, _ := cmd.Flags().GetString("thread")

	if documentID == "" || category == "" || name == "" || promptText == "" {
		return fmt.Errorf("missing required flags: --document, --category, --name, and --prompt are required")
	}

	if responseFile != "" {
		data, err := os.ReadFile(responseFile)
		if err != nil {
			return fmt.Errorf("reading response file: %w", err)
		}
		responseBody = string(data)
	}
	if strings.TrimSpace(responseBody) == "" {
		return fmt.Errorf("missing response body: provide --response or --response-file")
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	endpointID, err := s.SaveEndpoint(context.Background(), store.SaveInput{
		DocumentID:   documentID,
		Category:     category,
		Name:         name,
		PromptText:   promptText,
		ResponseBody: responseBody,
		Citations:    citations,
		ThreadRef:    threadRef,
		IsSubgroup:   pipeline.IsSubgroupPrompt(promptText),
	})
	if err != nil {
		return err
	}

	fmt.Println(endpointID)
	return nil
}

// --- catalog subcommand ---

var endpointCatalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List a document's endpoints grouped by category",
	Long: `Catalog prints the document's stored endpoints grouped by category, most
recently updated first within each category. Methods and Conclusion drafting
pick endpoints from this view. Use --export to also write state/catalog.yaml.`,
	RunE: runEndpointCatalog,
}

func runEndpointCatalog(cmd *cobra.Command, args []string) error {
	documentID, _ := cmd.Flags().GetString("document")
	category, _ := cmd.Flags().GetString("category")
	if documentID == "" {
		return fmt.Errorf("missing required flag: --document")
	}

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	catalog, err := s.Catalog(ctx, documentID, category)
	if err != nil {
		return err
	}

	if export, _ := cmd.Flags().GetBool("export"); export {
		path, err := s.ExportCatalogYAML(ctx, documentID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", path)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}

	if len(catalog) == 0 {
		fmt.Println("No endpoints saved for this document.")
		return nil
	}

	total := 0
	for _, ce := range catalog {
		fmt.Fprintf(os.Stdout, "%s:\n", ce.Category)
		for _, ep := range ce.Endpoints {
			fmt.Fprintf(os.Stdout, "  %s  %-40s  updated %s\n",
				ep.ID, ep.Name, ep.UpdatedAt.Format("2006-01-02 15:04"))
			total++
		}
	}
	fmt.Fprintf(os.Stdout, "\n%d endpoints\n", total)
	return nil
}

// --- history subcommand ---

var endpointHistoryCmd = &cobra.Command{
	Use:   "history <endpoint-id>",
	Short: "List the response ledger for an endpoint",
	Long: `History prints every prompt/response record saved for an endpoint in
insertion order, oldest first. Records are never rewritten; use
--subgroup-only to see only subgroup-analysis responses.`,
	Args: cobra.ExactArgs(1),
	RunE: runEndpointHistory,
}

func runEndpointHistory(cmd *cobra.Command, args []string) error {
	subgroupOnly, _ := cmd.Flags().GetBool("subgroup-only")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	var records []types.ResponseRecord
	if subgroupOnly {
		records, err = s.SubgroupHistory(ctx, args[0])
	} else {
		records, err = s.History(ctx, args[0])
	}
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No responses recorded.")
		return nil
	}

	for _, rec := range records {
		tag := ""
		if rec.IsSubgroup {
			tag = "  [subgroup]"
		}
		prompt := rec.PromptText
		if len(prompt) > 80 {
			prompt = prompt[:77] + "..."
		}
		fmt.Fprintf(os.Stdout, "#%d  %s%s\n    %s\n",
			rec.Seq, rec.CreatedAt.Format("2006-01-02 15:04"), tag, prompt)
	}
	fmt.Fprintf(os.Stdout, "\n%d records\n", len(records))
	return nil
}

func init() {
	// Save flags.
	endpointSaveCmd.Flags().String("document", "", "document ID the endpoint belongs to")
	endpointSaveCmd.Flags().String("category", "", "endpoint category (e.g. safety, efficacy)")
	endpointSaveCmd.Flags().String("name", "", "endpoint name as extracted")
	endpointSaveCmd.Flags().String("prompt", "", "prompt text that produced the response")
	endpointSaveCmd.Flags().String("response", "", "assistant response body")
	endpointSaveCmd.Flags().String("response-file", "", "file containing the assistant response body")
	endpointSaveCmd.Flags().StringArray("citation", nil, "citation string (repeatable)")
	endpointSaveCmd.Flags().String("thread", "", "conversation thread reference that produced the response")

	// Catalog flags.
	endpointCatalogCmd.Flags().String("document", "", "document ID to list")
	endpointCatalogCmd.Flags().String("category", "", "restrict to one category")
	endpointCatalogCmd.Flags().Bool("json", false, "output the catalog as JSON")
	endpointCatalogCmd.Flags().Bool("export", false, "also write state/catalog.yaml")

	// History flags.
	endpointHistoryCmd.Flags().Bool("subgroup-only", false, "show only subgroup-analysis records")
	endpointHistoryCmd.Flags().Bool("json", false, "output records as JSON")

	endpointCmd.AddCommand(endpointSaveCmd)
	endpointCmd.AddCommand(endpointCatalogCmd)
	endpointCmd.AddCommand(endpointHistoryCmd)

	rootCmd.AddCommand(endpointCmd)
}
