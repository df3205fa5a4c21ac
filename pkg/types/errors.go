// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Error taxonomy for the manuscript-engine core. Every failure surfaced to
// the UI layer wraps one of these sentinels so callers can classify with
// errors.Is without string matching. No error here is fatal to the process;
// each is scoped to a single request. Per prd005-section-pipeline R5.1-R5.4.
var (
	// ErrNoEndpointBlock reports that no structured endpoint block was
	// found in the raw AI answer. Recoverable: the user re-prompts.
	ErrNoEndpointBlock = errors.New("no endpoint block found in response")

	// ErrMalformedBlock reports that an endpoint block was located but is
	// not a valid literal. Recoverable: the user re-prompts.
	ErrMalformedBlock = errors.New("endpoint block is not a valid literal")

	// ErrPersistence reports a store write failure. Retryable by
	// re-submitting the save.
	ErrPersistence = errors.New("endpoint store write failed")

	// ErrAssistant reports a timeout or failure from the external AI
	// capability. Continuity state is left unchanged on this error.
	ErrAssistant = errors.New("assistant request failed")

	// ErrNotFound reports a lookup for a document or endpoint that does
	// not exist.
	ErrNotFound = errors.New("not found")
)
