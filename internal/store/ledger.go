// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// History returns the full response ledger for an endpoint in insertion
// order, oldest first (R2.1). The ledger has no update or delete path;
// corrections append new records, so everything ever shown to a user stays
// recoverable for citation auditing (R2.2, R2.3).
func (s *Store) History(ctx context.Context, endpointID string) ([]types.ResponseRecord, error) {
	return s.history(ctx, endpointID, false)
}

// SubgroupHistory returns only the subgroup-tagged ledger records for an
// endpoint, oldest first. Methods and Conclusion use this to re-surface
// subgroup analyses separately from the main narrative (R2.4).
func (s *Store) SubgroupHistory(ctx context.Context, endpointID string) ([]types.ResponseRecord, error) {
	return s.history(ctx, endpointID, true)
}

func (s *Store) history(ctx context.Context, endpointID string, subgroupOnly bool) ([]types.ResponseRecord, error) {
	query := `SELECT seq, endpoint_id, prompt_text, response_body, citations, is_subgroup, thread_ref, created_at
		FROM responses WHERE endpoint_id = ?`
	if subgroupOnly {
		query += ` AND is_subgroup = 1`
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, endpointID)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var records []types.ResponseRecord
	for rows.Next() {
		var (
			rec           types.ResponseRecord
			citationsJSON string
			isSubgroup    int
			createdAt     string
		)
		if err := rows.Scan(
			&rec.Seq, &rec.EndpointID, &rec.PromptText, &rec.ResponseBody,
			&citationsJSON, &isSubgroup, &rec.ThreadRef, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		json.Unmarshal([]byte(citationsJSON), &rec.Citations)
		rec.IsSubgroup = isSubgroup != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
