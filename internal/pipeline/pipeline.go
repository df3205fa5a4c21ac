// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the drafting stages for one document: Results
// produces endpoints, Methods and Conclusion consume them, and any section
// can attach follow-up chat turns. Every failure is returned as a typed
// error from pkg/types; nothing is swallowed and nothing is fatal to the
// process.
// Implements: prd005-section-pipeline (R1-R5);
//
//	docs/ARCHITECTURE § Section Pipeline.
package pipeline

import (
	"context"
	"fmt"

	"github.com/pdiddy/manuscript-engine/internal/conversation"
	"github.com/pdiddy/manuscript-engine/internal/extractor"
	"github.com/pdiddy/manuscript-engine/internal/sections"
	"github.com/pdiddy/manuscript-engine/internal/store"
	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// Coordinator wires the extractor, store, and continuity manager together
// for one document.
type Coordinator struct {
	store *store.Store
	conv  *conversation.Manager
	doc   types.Document
}

// New builds a Coordinator for a registered document. The store doubles as
// the thread registry, so conversation continuity survives across CLI
// invocations within a session.
func New(s *store.Store, backend conversation.Asker, doc types.Document) *Coordinator {
	return &Coordinator{
		store: s,
		conv:  conversation.NewManager(backend, s, doc.ID),
		doc:   doc,
	}
}

// Document returns the document this coordinator operates on.
func (c *Coordinator) Document() types.Document { return c.doc }

// Conversation exposes the continuity manager for mode toggles.
func (c *Coordinator) Conversation() *conversation.Manager { return c.conv }

// ResultsOutput is the outcome of a generate-results request.
type ResultsOutput struct {
	// Answer is the raw assistant answer, kept even when extraction fails
	// so the user can inspect and retry.
	Answer types.Answer

	// Tree is the parsed category structure, nil when extraction failed.
	Tree *extractor.CategoryTree

	// Refs is the flattened (category, name) list in deterministic order.
	Refs []types.EndpointRef

	// ExtractErr is the typed extraction failure, if any. Non-fatal: the
	// caller surfaces "no endpoints found" and the user regenerates
	// (R1.3).
	ExtractErr error
}

// GenerateResults asks the assistant to identify the trial's endpoints and
// extracts the categorized structure from the answer. The query runs in the
// general context with the given continuity mode (R1.1, R1.2).
func (c *Coordinator) GenerateResults(ctx context.Context, mode conversation.Mode) (*ResultsOutput, error) {
	answer, err := c.conv.Ask(ctx, conversation.GeneralContext(), sections.GenerateResultsPrompt, mode)
	if err != nil {
		return nil, err
	}

	out := &ResultsOutput{Answer: answer}
	tree, err := extractor.Extract(answer.Response)
	if err != nil {
		out.ExtractErr = err
		return out, nil
	}
	out.Tree = tree
	out.Refs = extractor.Flatten(tree)
	return out, nil
}

// ExtractEndpoints parses an already-generated raw answer. Exposed for the
// UI flow where the answer text is edited before extraction.
func (c *Coordinator) ExtractEndpoints(raw string) (*extractor.CategoryTree, []types.EndpointRef, error) {
	tree, err := extractor.Extract(raw)
	if err != nil {
		return nil, nil, err
	}
	return tree, extractor.Flatten(tree), nil
}

// AskEndpoint runs a prompt for one selected endpoint bullet in that
// endpoint's own conversation context (R2.1).
func (c *Coordinator) AskEndpoint(ctx context.Context, category, name, promptText string, mode conversation.Mode) (types.Answer, error) {
	key := conversation.EndpointContext(store.EndpointID(c.doc.ID, category, name))
	return c.conv.Ask(ctx, key, promptText, mode)
}

// SaveRequest carries one endpoint save from the UI layer.
type SaveRequest struct {
	Category     string
	Name         string
	PromptText   string
	ResponseBody string
	Citations    []string
	ThreadRef    string
}

// SaveEndpoint classifies the prompt for subgroup analysis and persists the
// response: an idempotent upsert of the endpoint's latest view plus an
// append-only ledger record, committed atomically (R2.2, R2.3). Returns
// the deterministic endpoint ID.
func (c *Coordinator) SaveEndpoint(ctx context.Context, req SaveRequest) (string, error) {
	return c.store.SaveEndpoint(ctx, store.SaveInput{
		DocumentID:   c.doc.ID,
		Category:     req.Category,
		Name:         req.Name,
		PromptText:   req.PromptText,
		ResponseBody: req.ResponseBody,
		Citations:    req.Citations,
		ThreadRef:    req.ThreadRef,
		IsSubgroup:   IsSubgroupPrompt(req.PromptText),
	})
}

// Catalog returns the document's endpoints grouped by category for section
// consumption, reflecting every prior save (R3.1, R3.2).
func (c *Coordinator) Catalog(ctx context.Context, category string) ([]types.CategoryEndpoints, error) {
	return c.store.Catalog(ctx, c.doc.ID, category)
}

// ResponseHistory returns an endpoint's ledger, oldest first, optionally
// restricted to subgroup-tagged records (R3.3).
func (c *Coordinator) ResponseHistory(ctx context.Context, endpointID string, subgroupOnly bool) ([]types.ResponseRecord, error) {
	if subgroupOnly {
		return c.store.SubgroupHistory(ctx, endpointID)
	}
	return c.store.History(ctx, endpointID)
}

// BuildSectionPrompt assembles the Methods or Conclusion generation prompt
// from the selected endpoints, plus their subgroup analyses when requested,
// without sending it. The UI flow lets the user review and edit the prompt
// before generation.
func (c *Coordinator) BuildSectionPrompt(ctx context.Context, section string, endpointIDs []string, includeSubgroups bool) (string, error) {
	selected, subgroups, err := c.collectSelection(ctx, endpointIDs, includeSubgroups)
	if err != nil {
		return "", err
	}

	switch section {
	case "methods":
		return sections.MethodsPrompt(selected, subgroups), nil
	case "conclusion":
		return sections.ConclusionPrompt(selected, subgroups), nil
	default:
		return "", fmt.Errorf("unsupported section %q: use methods or conclusion", section)
	}
}

// GenerateSection builds the Methods or Conclusion prompt from the selected
// endpoints (plus their subgroup analyses when requested) and asks the
// assistant in that section's context (R4.1-R4.3).
func (c *Coordinator) GenerateSection(ctx context.Context, section string, endpointIDs []string, includeSubgroups bool, mode conversation.Mode) (types.Answer, error) {
	prompt, err := c.BuildSectionPrompt(ctx, section, endpointIDs, includeSubgroups)
	if err != nil {
		return types.Answer{}, err
	}
	return c.conv.Ask(ctx, conversation.SectionContext(section), prompt, mode)
}

// AskSection sends a free-form follow-up question in a section's chat
// context (R4.4).
func (c *Coordinator) AskSection(ctx context.Context, section, question string, mode conversation.Mode) (types.Answer, error) {
	return c.conv.Ask(ctx, conversation.SectionContext(section), question, mode)
}

// collectSelection resolves endpoint IDs against the store, groups them by
// category in catalog order, and gathers their subgroup ledger records.
func (c *Coordinator) collectSelection(ctx context.Context, endpointIDs []string, includeSubgroups bool) ([]types.CategoryEndpoints, []types.ResponseRecord, error) {
	wanted := make(map[string]bool, len(endpointIDs))
	for _, id := range endpointIDs {
		wanted[id] = true
	}

	catalog, err := c.store.Catalog(ctx, c.doc.ID, "")
	if err != nil {
		return nil, nil, err
	}

	var selected []types.CategoryEndpoints
	var subgroups []types.ResponseRecord
	found := 0

	for _, ce := range catalog {
		var keep []types.EndpointSummary
		for _, ep := range ce.Endpoints {
			if !wanted[ep.ID] {
				continue
			}
			keep = append(keep, ep)
			found++
			if includeSubgroups {
				recs, err := c.store.SubgroupHistory(ctx, ep.ID)
				if err != nil {
					return nil, nil, err
				}
				subgroups = append(subgroups, recs...)
			}
		}
		if len(keep) > 0 {
			selected = append(selected, types.CategoryEndpoints{Category: ce.Category, Endpoints: keep})
		}
	}

	if found < len(wanted) {
		return nil, nil, fmt.Errorf("%w: %d of %d selected endpoints", types.ErrNotFound, len(wanted)-found, len(wanted))
	}
	return selected, subgroups, nil
}
