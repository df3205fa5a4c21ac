// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extractor parses the nested category→endpoint structure embedded
// in a raw "generate results" answer from the assistant.
// Implements: prd001-endpoint-extraction (R1-R3);
//
//	docs/ARCHITECTURE § Endpoint Extraction.
package extractor

import (
	"fmt"
	"regexp"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// labeledPattern matches the labeled assignment form the assistant is
// prompted to produce: "endpoints = {...". The capture starts at the opening
// brace; the literal parser decides where the structure ends.
var labeledPattern = regexp.MustCompile(`(?s)endpoints\s*=\s*(\{.*)`)

// barePattern is the fallback for answers that contain a bare dictionary
// whose first key is a quoted string, without the "endpoints =" label.
var barePattern = regexp.MustCompile(`(?s)(\{\s*['"].*)`)

// CategoryTree is the normalized output of extraction: the top-level dict
// keys become category names, each holding the nested structure found under
// that key in source order.
type CategoryTree struct {
	Categories []Category
}

// Category is one named grouping of endpoints with its nested structure.
type Category struct {
	Name string
	Root *Node
}

// Extract locates the endpoint structure inside raw free text and parses it
// into a CategoryTree. It returns types.ErrNoEndpointBlock when no candidate
// block exists and types.ErrMalformedBlock when a block is found but is not
// a valid literal dict. Both are recoverable: the caller surfaces "no
// endpoints found" and the user retries generation. Extraction is pure and
// deterministic for identical input (R1.1-R1.5).
func Extract(raw string) (*CategoryTree, error) {
	block, ok := locateBlock(raw)
	if !ok {
		return nil, types.ErrNoEndpointBlock
	}

	root, err := parseLiteral(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedBlock, err)
	}
	if root.Kind != KindDict {
		return nil, fmt.Errorf("%w: top-level structure is not a dict", types.ErrMalformedBlock)
	}

	tree := &CategoryTree{}
	for _, entry := range root.Entries {
		tree.Categories = append(tree.Categories, Category{
			Name: entry.Key,
			Root: entry.Value,
		})
	}
	return tree, nil
}

// locateBlock finds the candidate literal inside raw text. The labeled
// "endpoints = {" form wins; otherwise the first bare dict with a quoted
// first key is used. The returned string starts at the opening brace and
// runs to the end of the input; the parser ignores trailing text.
func locateBlock(raw string) (string, bool) {
	if m := labeledPattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := barePattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	return "", false
}

// Flatten walks the tree and returns every leaf as a (category, name) pair.
// Leaves are scalar values; a dict key whose value is an empty container is
// itself a leaf. The walk uses an explicit work-list rather than recursion
// because nesting depth is model-controlled and unbounded (R3.1-R3.3).
// Order is deterministic, following the source order of keys and elements;
// it carries no semantic meaning.
func Flatten(tree *CategoryTree) []types.EndpointRef {
	var refs []types.EndpointRef

	type workItem struct {
		category string
		node     *Node
		name     string // key under which the node hangs, for empty-container leaves
	}

	var stack []workItem
	// Push categories in reverse so the stack pops them in source order. An
	// empty container at the top level is an empty category, not a leaf.
	for i := len(tree.Categories) - 1; i >= 0; i-- {
		c := tree.Categories[i]
		if c.Root.IsEmptyContainer() {
			continue
		}
		stack = append(stack, workItem{category: c.Name, node: c.Root, name: c.Name})
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch item.node.Kind {
		case KindScalar:
			refs = append(refs, types.EndpointRef{Category: item.category, Name: item.node.Scalar})

		case KindList:
			if item.node.IsEmptyContainer() {
				refs = append(refs, types.EndpointRef{Category: item.category, Name: item.name})
				continue
			}
			for i := len(item.node.Items) - 1; i >= 0; i-- {
				stack = append(stack, workItem{category: item.category, node: item.node.Items[i], name: item.name})
			}

		case KindDict:
			if item.node.IsEmptyContainer() {
				refs = append(refs, types.EndpointRef{Category: item.category, Name: item.name})
				continue
			}
			for i := len(item.node.Entries) - 1; i >= 0; i-- {
				e := item.node.Entries[i]
				stack = append(stack, workItem{category: item.category, node: e.Value, name: e.Key})
			}
		}
	}

	return refs
}
