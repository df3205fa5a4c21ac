// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// PutThread records the thread reference for a conversation context,
// replacing any previous reference for that context. Threads are owned by
// the document and cleared with it; endpoints hold only weak references.
func (s *Store) PutThread(ctx context.Context, documentID, ownerContext, threadRef string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO threads (document_id, owner_context, thread_ref, last_used_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(document_id, owner_context) DO UPDATE SET
			thread_ref=excluded.thread_ref, last_used_at=excluded.last_used_at`,
		documentID, ownerContext, threadRef, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%w: recording thread: %v", types.ErrPersistence, err)
	}
	return nil
}

// GetThread returns the stored thread reference for a conversation context,
// or "" when the context has no active thread.
func (s *Store) GetThread(ctx context.Context, documentID, ownerContext string) (string, error) {
	var ref string
	err := s.db.QueryRowContext(ctx,
		`SELECT thread_ref FROM threads WHERE document_id = ? AND owner_context = ?`,
		documentID, ownerContext,
	).Scan(&ref)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up thread: %w", err)
	}
	return ref, nil
}

// DropThread forgets the thread reference for a conversation context. Used
// when the user toggles a context to independent mode, so a later dependent
// query cannot resurrect the pre-toggle thread.
func (s *Store) DropThread(ctx context.Context, documentID, ownerContext string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM threads WHERE document_id = ? AND owner_context = ?`,
		documentID, ownerContext,
	)
	if err != nil {
		return fmt.Errorf("%w: dropping thread: %v", types.ErrPersistence, err)
	}
	return nil
}
