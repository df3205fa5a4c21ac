// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-engine/internal/extractor"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Parse the endpoint structure out of a raw assistant answer",
	Long: `Extract locates the "endpoints = {...}" block (or a bare dictionary) inside
a raw assistant answer, parses it without executing anything, and prints the
categories and endpoint names it contains. Reads from the given file, or from
stdin when no file is supplied.

Extraction failures are expected and recoverable: regenerate the answer and
try again.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	var raw []byte
	var err error

	if len(args) == 1 {
		raw, err = os.ReadFile(args[0])
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	tree, err := extractor.Extract(string(raw))
	if err != nil {
		return err
	}
	refs := extractor.Flatten(tree)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	flat, _ := cmd.Flags().GetBool("flat")

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(refs)
	}

	if flat {
		for _, r := range refs {
			fmt.Fprintf(os.Stdout, "%s\t%s\n", r.Category, r.Name)
		}
		return nil
	}

	category := ""
	for _, r := range refs {
		if r.Category != category {
			category = r.Category
			fmt.Fprintf(os.Stdout, "%s:\n", category)
		}
		fmt.Fprintf(os.Stdout, "  - %s\n", r.Name)
	}
	fmt.Fprintf(os.Stdout, "\n%d endpoints in %d categories\n", len(refs), len(tree.Categories))
	return nil
}

func init() {
	extractCmd.Flags().Bool("json", false, "output flattened endpoints as JSON")
	extractCmd.Flags().Bool("flat", false, "output tab-separated category/name pairs")

	rootCmd.AddCommand(extractCmd)
}
