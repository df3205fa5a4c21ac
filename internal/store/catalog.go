// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

const catalogExportFile = "catalog.yaml"

// Catalog returns a document's endpoints grouped by category for
// section-level consumption: Methods and Conclusion pick from this view.
// It is a pure read projection with no caching, so a save is visible to the
// immediately following catalog call (R4.2, R4.3). Categories with zero
// endpoints are omitted. Category order is ascending; endpoints within a
// category are most recently updated first.
func (s *Store) Catalog(ctx context.Context, documentID, category string) ([]types.CategoryEndpoints, error) {
	endpoints, err := s.ListByDocument(ctx, documentID, category)
	if err != nil {
		return nil, err
	}

	var catalog []types.CategoryEndpoints
	for _, ep := range endpoints {
		summary := types.EndpointSummary{
			ID:             ep.ID,
			Name:           ep.Name,
			LatestResponse: ep.LatestResponse,
			UpdatedAt:      ep.UpdatedAt,
		}
		if n := len(catalog); n > 0 && catalog[n-1].Category == ep.Category {
			catalog[n-1].Endpoints = append(catalog[n-1].Endpoints, summary)
			continue
		}
		catalog = append(catalog, types.CategoryEndpoints{
			Category:  ep.Category,
			Endpoints: []types.EndpointSummary{summary},
		})
	}
	return catalog, nil
}

// ExportCatalogYAML writes a document's full catalog to
// stateDir/catalog.yaml for consumption outside the CLI.
func (s *Store) ExportCatalogYAML(ctx context.Context, documentID string) (string, error) {
	catalog, err := s.Catalog(ctx, documentID, "")
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(catalog)
	if err != nil {
		return "", fmt.Errorf("marshaling catalog: %w", err)
	}

	path := filepath.Join(s.stateDir, catalogExportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", types.ErrPersistence, path, err)
	}
	return path, nil
}
