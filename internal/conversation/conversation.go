// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conversation decides, per query, whether to extend an existing
// assistant dialogue or start a fresh one, and tracks the resulting thread
// reference per conversation context.
// Implements: prd004-conversation (R1-R4);
//
//	docs/ARCHITECTURE § Conversation Continuity.
package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// Mode selects thread continuity for a query. Modeled as an explicit
// variant rather than a boolean so every call site names its intent (R1.1).
type Mode string

const (
	// ModeDependent reuses the context's active thread, if any.
	ModeDependent Mode = "dependent"

	// ModeIndependent always opens a fresh thread.
	ModeIndependent Mode = "independent"
)

// Context key builders. Each UI flow keeps an independent thread lineage, so
// switching areas never cross-contaminates dialogue history (R1.2).

// GeneralContext is the key for the document-wide query flow.
func GeneralContext() string { return "general" }

// EndpointContext is the key for the per-endpoint prompt flow.
func EndpointContext(endpointID string) string { return "endpoint:" + endpointID }

// SectionContext is the key for a section's chat flow.
func SectionContext(section string) string { return "section:" + section }

// Asker abstracts the external AI capability. An empty threadRef asks the
// capability to open a new thread; a non-empty one continues the dialogue it
// names. The capability owns thread lifecycle: the ThreadRef in the returned
// Answer is authoritative, whether reused or refreshed (R2.3).
type Asker interface {
	Ask(ctx context.Context, question, threadRef string) (types.Answer, error)
}

// ThreadStore persists the active thread reference per conversation context.
// Implemented by the endpoint store's threads table; MemoryThreads provides
// an in-process variant.
type ThreadStore interface {
	GetThread(ctx context.Context, documentID, ownerContext string) (string, error)
	PutThread(ctx context.Context, documentID, ownerContext, threadRef string) error
	DropThread(ctx context.Context, documentID, ownerContext string) error
}

// Manager runs the per-context continuity state machine for one document:
// no thread → active(ref) after the first successful query. Threads never
// expire on their own; they last until the document is cleared or the
// context is reset by toggling to independent mode (R2.1-R2.5).
type Manager struct {
	backend    Asker
	threads    ThreadStore
	documentID string
}

// NewManager builds a Manager for one document's conversation contexts.
func NewManager(backend Asker, threads ThreadStore, documentID string) *Manager {
	return &Manager{backend: backend, threads: threads, documentID: documentID}
}

// Ask sends a question in the given conversation context. With
// ModeDependent an active thread reference is forwarded when one exists;
// with ModeIndependent no reference is sent and the capability opens a new
// thread. On success the returned reference overwrites the stored one; a
// successful independent ask whose answer carries no reference drops the
// stored one, so a pre-existing thread can never resurface after the fresh
// start. On failure (including a caller-supplied timeout) no state
// transition happens, so a retry behaves identically to the first attempt
// (R2.4, R2.5, R3.2).
func (m *Manager) Ask(ctx context.Context, ownerContext, question string, mode Mode) (types.Answer, error) {
	var threadRef string
	if mode == ModeDependent {
		ref, err := m.threads.GetThread(ctx, m.documentID, ownerContext)
		if err != nil {
			return types.Answer{}, err
		}
		threadRef = ref
	}

	answer, err := m.backend.Ask(ctx, question, threadRef)
	if err != nil {
		return types.Answer{}, fmt.Errorf("context %s: %w", ownerContext, err)
	}

	if answer.ThreadRef != "" {
		if err := m.threads.PutThread(ctx, m.documentID, ownerContext, answer.ThreadRef); err != nil {
			return types.Answer{}, err
		}
	} else if mode == ModeIndependent {
		if err := m.threads.DropThread(ctx, m.documentID, ownerContext); err != nil {
			return types.Answer{}, err
		}
	}
	return answer, nil
}

// SetMode applies a continuity toggle for a context. Switching to
// independent drops the stored reference, so toggling back to dependent can
// never resurrect a pre-toggle thread: the next query starts fresh (R2.5).
func (m *Manager) SetMode(ctx context.Context, ownerContext string, mode Mode) error {
	if mode == ModeIndependent {
		return m.threads.DropThread(ctx, m.documentID, ownerContext)
	}
	return nil
}

// ActiveThread reports the stored thread reference for a context, or ""
// when the context has not had a successful query yet.
func (m *Manager) ActiveThread(ctx context.Context, ownerContext string) (string, error) {
	return m.threads.GetThread(ctx, m.documentID, ownerContext)
}

// MemoryThreads is an in-process ThreadStore for tests and embedders that
// do not need continuity to survive the process.
type MemoryThreads struct {
	mu   sync.Mutex
	refs map[string]string
}

// NewMemoryThreads returns an empty in-process thread store.
func NewMemoryThreads() *MemoryThreads {
	return &MemoryThreads{refs: make(map[string]string)}
}

func (m *MemoryThreads) key(documentID, ownerContext string) string {
	return documentID + "\x00" + ownerContext
}

// GetThread implements ThreadStore.
func (m *MemoryThreads) GetThread(_ context.Context, documentID, ownerContext string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs[m.key(documentID, ownerContext)], nil
}

// PutThread implements ThreadStore.
func (m *MemoryThreads) PutThread(_ context.Context, documentID, ownerContext, threadRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[m.key(documentID, ownerContext)] = threadRef
	return nil
}

// DropThread implements ThreadStore.
func (m *MemoryThreads) DropThread(_ context.Context, documentID, ownerContext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.refs, m.key(documentID, ownerContext))
	return nil
}
