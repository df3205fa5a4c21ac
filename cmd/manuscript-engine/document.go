// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manuscript-engine/internal/store"
	"github.com/pdiddy/manuscript-engine/pkg/types"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage documents (open, clear)",
	Long: `Document registers uploaded source papers and clears their state. A
document owns every endpoint, ledger record, and conversation thread created
against it; clearing mirrors the new-upload flow of the drafting session.`,
}

var documentOpenCmd = &cobra.Command{
	Use:   "open <file>",
	Short: "Register a source paper and print its document ID",
	Long: `Open registers an uploaded source paper under a surrogate document ID and
prints the ID. File names are not identities: opening the same file name twice
creates two documents unless --reuse is given, which returns the most recently
registered document with that file name.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentOpen,
}

func runDocumentOpen(cmd *cobra.Command, args []string) error {
	fileName := filepath.Base(args[0])
	reuse, _ := cmd.Flags().GetBool("reuse")

	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()

	if reuse {
		doc, err := s.FindDocumentByFileName(ctx, fileName)
		if err == nil {
			fmt.Println(doc.ID)
			return nil
		}
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
	}

	doc, err := s.RegisterDocument(ctx, fileName)
	if err != nil {
		return err
	}
	fmt.Println(doc.ID)
	return nil
}

var documentClearCmd = &cobra.Command{
	Use:   "clear <document-id>",
	Short: "Remove a document and everything it owns",
	Long: `Clear deletes a document together with its endpoints, response ledger, and
conversation threads, in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentClear,
}

func runDocumentClear(cmd *cobra.Command, args []string) error {
	s, err := store.NewStore(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.ClearDocument(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "cleared %s\n", args[0])
	return nil
}

func init() {
	documentOpenCmd.Flags().Bool("reuse", false, "return the existing document for this file name if one exists")

	documentCmd.AddCommand(documentOpenCmd)
	documentCmd.AddCommand(documentClearCmd)

	rootCmd.AddCommand(documentCmd)
}
