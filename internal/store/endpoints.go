// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// SaveInput carries one endpoint save request. PromptText and the response
// always land in the ledger; the endpoint's latest_response view is updated
// only for non-subgroup saves.
type SaveInput struct {
	DocumentID   string
	Category     string
	Name         string
	PromptText   string
	ResponseBody string
	Citations    []string
	ThreadRef    string
	IsSubgroup   bool
}

// SaveEndpoint upserts the endpoint row for (document, category, name) and
// appends a ledger record, atomically in one transaction (R3.1-R3.5). The
// first save sets created_at = updated_at; later saves preserve created_at
// and replace the latest view. A failure rolls back both writes, so the
// latest pointer can never reference a record absent from the ledger.
// Returns the deterministic endpoint ID.
func (s *Store) SaveEndpoint(ctx context.Context, in SaveInput) (string, error) {
	if _, err := s.GetDocument(ctx, in.DocumentID); err != nil {
		return "", err
	}

	endpointID := EndpointID(in.DocumentID, in.Category, in.Name)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	citationsJSON, _ := json.Marshal(in.Citations)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%w: beginning transaction: %v", types.ErrPersistence, err)
	}
	defer tx.Rollback()

	if in.IsSubgroup {
		// Subgroup analyses never become the endpoint's main narrative;
		// they only bump recency.
		_, err = tx.ExecContext(ctx,
			`INSERT INTO endpoints (id, document_id, category, name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET updated_at=excluded.updated_at`,
			endpointID, in.DocumentID, in.Category, in.Name, now, now,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO endpoints (id, document_id, category, name, latest_response, citations, thread_ref, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				latest_response=excluded.latest_response,
				citations=excluded.citations,
				thread_ref=excluded.thread_ref,
				updated_at=excluded.updated_at`,
			endpointID, in.DocumentID, in.Category, in.Name,
			in.ResponseBody, string(citationsJSON), in.ThreadRef, now, now,
		)
	}
	if err != nil {
		return "", fmt.Errorf("%w: upserting endpoint: %v", types.ErrPersistence, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO responses (endpoint_id, prompt_text, response_body, citations, is_subgroup, thread_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		endpointID, in.PromptText, in.ResponseBody, string(citationsJSON),
		boolToInt(in.IsSubgroup), in.ThreadRef, now,
	)
	if err != nil {
		return "", fmt.Errorf("%w: appending ledger record: %v", types.ErrPersistence, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: committing save: %v", types.ErrPersistence, err)
	}
	return endpointID, nil
}

// GetEndpoint looks up a single endpoint by ID.
func (s *Store) GetEndpoint(ctx context.Context, endpointID string) (types.Endpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, category, name, latest_response, citations, thread_ref, created_at, updated_at
		 FROM endpoints WHERE id = ?`, endpointID)

	ep, err := scanEndpoint(row)
	if err == sql.ErrNoRows {
		return types.Endpoint{}, fmt.Errorf("%w: endpoint %s", types.ErrNotFound, endpointID)
	}
	if err != nil {
		return types.Endpoint{}, fmt.Errorf("looking up endpoint: %w", err)
	}
	return ep, nil
}

// ListByDocument returns a document's endpoints ordered by category, then
// most recently updated first within a category. An empty category lists
// every category (R4.1).
func (s *Store) ListByDocument(ctx context.Context, documentID, category string) ([]types.Endpoint, error) {
	query := `SELECT id, document_id, category, name, latest_response, citations, thread_ref, created_at, updated_at
		FROM endpoints WHERE document_id = ?`
	args := []any{documentID}

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, updated_at DESC, name LIMIT ?`
	args = append(args, s.maxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []types.Endpoint
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning endpoint row: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(r rowScanner) (types.Endpoint, error) {
	var (
		ep            types.Endpoint
		citationsJSON string
		createdAt     string
		updatedAt     string
	)
	if err := r.Scan(
		&ep.ID, &ep.DocumentID, &ep.Category, &ep.Name,
		&ep.LatestResponse, &citationsJSON, &ep.ThreadRef,
		&createdAt, &updatedAt,
	); err != nil {
		return types.Endpoint{}, err
	}
	json.Unmarshal([]byte(citationsJSON), &ep.Citations)
	ep.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	ep.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return ep, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
