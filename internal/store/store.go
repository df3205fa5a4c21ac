// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists documents, endpoints, the append-only response
// ledger, and conversation thread references in a SQLite database.
// Implements: prd002-endpoint-store (R1-R5), prd003-response-ledger (R1-R3);
//
//	docs/ARCHITECTURE § Endpoint Store.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

const dbFile = "manuscript.db"

// Store manages the manuscript state SQLite database.
type Store struct {
	db         *sql.DB
	stateDir   string
	maxResults int
}

// NewStore opens or creates the state database at stateDir/manuscript.db.
// It creates the schema if it does not exist (R1.2, R1.3).
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	dbPath := filepath.Join(cfg.StateDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{
		db:         db,
		stateDir:   cfg.StateDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			file_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS endpoints (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			name TEXT NOT NULL,
			latest_response TEXT NOT NULL DEFAULT '',
			citations TEXT NOT NULL DEFAULT '[]',
			thread_ref TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(document_id, category, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_endpoints_document ON endpoints(document_id)`,
		`CREATE TABLE IF NOT EXISTS responses (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			endpoint_id TEXT NOT NULL REFERENCES endpoints(id) ON DELETE CASCADE,
			prompt_text TEXT NOT NULL,
			response_body TEXT NOT NULL,
			citations TEXT NOT NULL DEFAULT '[]',
			is_subgroup INTEGER NOT NULL DEFAULT 0,
			thread_ref TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_endpoint ON responses(endpoint_id)`,
		`CREATE TABLE IF NOT EXISTS threads (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			owner_context TEXT NOT NULL,
			thread_ref TEXT NOT NULL,
			last_used_at TEXT NOT NULL,
			PRIMARY KEY (document_id, owner_context)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// EndpointID computes the deterministic composite key for a
// (document, category, name) triple: the first 12 hex characters of a
// SHA-256 over the length-prefixed fields. Length prefixes keep field
// boundaries unambiguous, so distinct triples cannot produce the same
// digest input and distinct documents never collide (R2.1, R2.2).
func EndpointID(documentID, category, name string) string {
	h := sha256.New()
	for _, part := range []string{documentID, category, name} {
		fmt.Fprintf(h, "%d:", len(part))
		h.Write([]byte(part))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// RegisterDocument records a newly uploaded source paper and returns its
// surrogate ID. File names are not identities: registering the same file
// name twice yields two documents (R1.1, resolves the identity open
// question).
func (s *Store) RegisterDocument(ctx context.Context, fileName string) (types.Document, error) {
	doc := types.Document{
		ID:        uuid.NewString(),
		FileName:  fileName,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, file_name, created_at) VALUES (?, ?, ?)`,
		doc.ID, doc.FileName, doc.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return types.Document{}, fmt.Errorf("%w: registering document: %v", types.ErrPersistence, err)
	}
	return doc, nil
}

// GetDocument looks up a document by ID.
func (s *Store) GetDocument(ctx context.Context, documentID string) (types.Document, error) {
	var doc types.Document
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, created_at FROM documents WHERE id = ?`, documentID,
	).Scan(&doc.ID, &doc.FileName, &createdAt)

	if err == sql.ErrNoRows {
		return types.Document{}, fmt.Errorf("%w: document %s", types.ErrNotFound, documentID)
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("looking up document: %w", err)
	}

	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return doc, nil
}

// FindDocumentByFileName returns the most recently registered document with
// the given file name, if any. Supports the upload flow's reuse check.
func (s *Store) FindDocumentByFileName(ctx context.Context, fileName string) (types.Document, error) {
	var doc types.Document
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, created_at FROM documents
		 WHERE file_name = ? ORDER BY created_at DESC LIMIT 1`, fileName,
	).Scan(&doc.ID, &doc.FileName, &createdAt)

	if err == sql.ErrNoRows {
		return types.Document{}, fmt.Errorf("%w: document with file name %q", types.ErrNotFound, fileName)
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("looking up document by file name: %w", err)
	}

	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return doc, nil
}

// ClearDocument removes a document and everything it owns: endpoints, their
// ledger records, and thread references. Mirrors the new-upload semantics of
// the drafting session (R1.4). The deletes run in one transaction.
func (s *Store) ClearDocument(ctx context.Context, documentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", types.ErrPersistence, err)
	}
	defer tx.Rollback()

	// Explicit child deletes rather than relying on cascade pragmas being
	// honored by every connection.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM responses WHERE endpoint_id IN
			(SELECT id FROM endpoints WHERE document_id = ?)`, documentID); err != nil {
		return fmt.Errorf("%w: deleting ledger records: %v", types.ErrPersistence, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM endpoints WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("%w: deleting endpoints: %v", types.ErrPersistence, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("%w: deleting threads: %v", types.ErrPersistence, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("%w: deleting document: %v", types.ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: document %s", types.ErrNotFound, documentID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing clear: %v", types.ErrPersistence, err)
	}
	return nil
}
