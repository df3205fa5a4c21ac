// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the manuscript-engine core.
// Implements: prd001-endpoint-extraction (EndpointRef);
//
//	prd002-endpoint-store (Document, Endpoint, EndpointSummary);
//	prd003-response-ledger (ResponseRecord);
//	prd004-conversation (OwnerContext, Answer).
//
// See docs/ARCHITECTURE.md § Data Model.
package types

import "time"

// Document is one uploaded source paper. It owns every Endpoint and
// conversation thread created against it; clearing a document cascades
// to both. Per prd002-endpoint-store R1.1.
type Document struct {
	// ID is a surrogate identifier assigned at registration. Two documents
	// with the same file name never share an ID.
	ID string `json:"id" yaml:"id"`

	// FileName is the name of the uploaded source file (e.g. "trial1.pdf").
	FileName string `json:"file_name" yaml:"file_name"`

	// CreatedAt is the registration time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Endpoint is a measurable outcome identified within a category of a
// document's results. At most one live Endpoint exists per
// (document, category, name); repeated saves update in place.
// Per prd002-endpoint-store R2.1-R2.4.
type Endpoint struct {
	// ID is a deterministic composite key derived from document ID,
	// category, and name. Stable across repeated saves.
	ID string `json:"endpoint_id" yaml:"endpoint_id"`

	// DocumentID identifies the owning document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Category is the grouping label discovered from the AI output
	// (e.g. "safety", "efficacy").
	Category string `json:"endpoint_category" yaml:"endpoint_category"`

	// Name is the endpoint name as it appeared in the extracted tree.
	Name string `json:"endpoint_name" yaml:"endpoint_name"`

	// LatestResponse is the most recent non-subgroup AI answer saved for
	// this endpoint. A denormalized view of the ledger, not a separate
	// write path.
	LatestResponse string `json:"assistant_response" yaml:"assistant_response"`

	// Citations are the citation strings attached to LatestResponse,
	// in source order.
	Citations []string `json:"citations" yaml:"citations"`

	// ThreadRef is the conversation reference that produced LatestResponse.
	// A weak reference: thread lifecycle is independent of the endpoint.
	ThreadRef string `json:"thread_id" yaml:"thread_id"`

	// CreatedAt is the first save time. Preserved across updates.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is the most recent save time.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// EndpointSummary is the catalog projection of an Endpoint consumed by
// downstream sections. Per prd002-endpoint-store R4.2.
type EndpointSummary struct {
	ID             string    `json:"endpoint_id" yaml:"endpoint_id"`
	Name           string    `json:"endpoint_name" yaml:"endpoint_name"`
	LatestResponse string    `json:"assistant_response" yaml:"assistant_response"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at"`
}

// CategoryEndpoints pairs a category with its endpoint summaries, most
// recently updated first. Catalog results preserve category order.
type CategoryEndpoints struct {
	Category  string            `json:"category" yaml:"category"`
	Endpoints []EndpointSummary `json:"endpoints" yaml:"endpoints"`
}

// ResponseRecord is an append-only ledger entry under an Endpoint. Records
// are never mutated or deleted; corrections append a new record so citation
// provenance for anything previously shown stays recoverable.
// Per prd003-response-ledger R1.1-R1.4.
type ResponseRecord struct {
	// Seq is the insertion sequence number, ascending from 1 per store.
	Seq int64 `json:"seq" yaml:"seq"`

	// EndpointID identifies the owning endpoint.
	EndpointID string `json:"endpoint_id" yaml:"endpoint_id"`

	// PromptText is the prompt that produced this response.
	PromptText string `json:"prompt_text" yaml:"prompt_text"`

	// ResponseBody is the AI answer body.
	ResponseBody string `json:"response_body" yaml:"response_body"`

	// Citations are the citation strings for this response, in source order.
	Citations []string `json:"citations" yaml:"citations"`

	// IsSubgroup marks responses whose prompt asked for a subgroup
	// analysis. Classified upstream from the prompt text; the ledger
	// only stores the flag.
	IsSubgroup bool `json:"is_subgroup" yaml:"is_subgroup"`

	// ThreadRef is the conversation reference used for this response.
	ThreadRef string `json:"thread_id" yaml:"thread_id"`

	// CreatedAt is the append time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// EndpointRef is one flattened (category, endpoint name) pair produced by
// extraction. Order of refs follows the source order of the extracted
// structure. Per prd001-endpoint-extraction R3.2.
type EndpointRef struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
}

// Answer is the result of one AI capability invocation.
// Per prd004-conversation R2.3.
type Answer struct {
	// Response is the answer body.
	Response string `json:"response" yaml:"response"`

	// Citations are the citation strings attached to the answer.
	Citations []string `json:"citations" yaml:"citations"`

	// ThreadRef is the conversation reference returned by the capability.
	// The capability owns thread lifecycle; callers treat this value as
	// authoritative.
	ThreadRef string `json:"thread_id" yaml:"thread_id"`
}
