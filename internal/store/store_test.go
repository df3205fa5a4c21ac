// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdiddy/manuscript-engine/pkg/types"
)

// --- test helpers ---

func testSetup(t *testing.T) (*Store, types.Document) {
	t.Helper()
	tmpDir := t.TempDir()

	store, err := NewStore(types.StoreConfig{StateDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	doc, err := store.RegisterDocument(context.Background(), "trial-report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	return store, doc
}

func sampleSave(doc types.Document) SaveInput {
	return SaveInput{
		DocumentID:   doc.ID,
		Category:     "safety",
		Name:         "adverse events",
		PromptText:   "Describe the results for the adverse events endpoint.",
		ResponseBody: "Grade 3 or higher adverse events occurred in 12% of patients.",
		Citations:    []string{"Table 3", "Section 5.2"},
		ThreadRef:    "thread-001",
	}
}

// --- schema tests ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store, _ := testSetup(t)

	tables := []string{"documents", "endpoints", "responses", "threads"}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestNewStoreCreatesDBFile(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(types.StoreConfig{StateDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, dbFile)); os.IsNotExist(err) {
		t.Errorf("database file not created in %s", tmpDir)
	}
}

// --- endpoint identity tests ---

func TestEndpointIDDeterministic(t *testing.T) {
	a := EndpointID("doc-1", "safety", "adverse events")
	b := EndpointID("doc-1", "safety", "adverse events")
	if a != b {
		t.Errorf("same triple produced different IDs: %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Errorf("ID length = %d, want 12", len(a))
	}
}

func TestEndpointIDDistinguishesComponents(t *testing.T) {
	base := EndpointID("doc-1", "safety", "adverse events")
	tests := []struct {
		name string
		id   string
	}{
		{"different document", EndpointID("doc-2", "safety", "adverse events")},
		{"different category", EndpointID("doc-1", "efficacy", "adverse events")},
		{"different name", EndpointID("doc-1", "safety", "serious adverse events")},
		{"shifted boundary", EndpointID("doc-1", "safetya", "dverse events")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.id == base {
				t.Errorf("ID collides with base triple")
			}
		})
	}
}

// --- save tests ---

func TestSaveEndpointRoundTrip(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	id, err := store.SaveEndpoint(ctx, sampleSave(doc))
	if err != nil {
		t.Fatalf("SaveEndpoint: %v", err)
	}
	if id != EndpointID(doc.ID, "safety", "adverse events") {
		t.Errorf("returned ID %q does not match derived ID", id)
	}

	ep, err := store.GetEndpoint(ctx, id)
	if err != nil {
		t.Fatalf("GetEndpoint: %v", err)
	}
	if ep.Category != "safety" || ep.Name != "adverse events" {
		t.Errorf("endpoint = (%q, %q)", ep.Category, ep.Name)
	}
	if ep.LatestResponse != sampleSave(doc).ResponseBody {
		t.Errorf("LatestResponse = %q", ep.LatestResponse)
	}
	if len(ep.Citations) != 2 || ep.Citations[0] != "Table 3" {
		t.Errorf("Citations = %v", ep.Citations)
	}
	if ep.ThreadRef != "thread-001" {
		t.Errorf("ThreadRef = %q", ep.ThreadRef)
	}
	if ep.CreatedAt.IsZero() || ep.UpdatedAt.IsZero() {
		t.Errorf("timestamps not set: %v %v", ep.CreatedAt, ep.UpdatedAt)
	}
}

func TestSaveEndpointIdempotentUpsert(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	first := sampleSave(doc)
	id1, err := store.SaveEndpoint(ctx, first)
	if err != nil {
		t.Fatal(err)
	}

	second := first
	second.ResponseBody = "Updated narrative after regeneration."
	second.Citations = []string{"Table 4"}
	second.ThreadRef = "thread-002"
	id2, err := store.SaveEndpoint(ctx, second)
	if err != nil {
		t.Fatal(err)
	}

	if id1 != id2 {
		t.Fatalf("second save produced a new identity: %q vs %q", id1, id2)
	}

	// One live row, updated in place.
	eps, err := store.ListByDocument(ctx, doc.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 1 {
		t.Fatalf("got %d endpoint rows, want 1", len(eps))
	}
	if eps[0].LatestResponse != second.ResponseBody {
		t.Errorf("LatestResponse = %q, want the second save", eps[0].LatestResponse)
	}
	if eps[0].UpdatedAt.Before(eps[0].CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", eps[0].UpdatedAt, eps[0].CreatedAt)
	}

	// Both responses in the ledger.
	records, err := store.History(ctx, id1)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d ledger records, want 2", len(records))
	}
	if records[0].ResponseBody != first.ResponseBody {
		t.Errorf("first ledger record = %q", records[0].ResponseBody)
	}
	if records[1].ResponseBody != second.ResponseBody {
		t.Errorf("second ledger record = %q", records[1].ResponseBody)
	}
	if records[0].Seq >= records[1].Seq {
		t.Errorf("ledger sequence not increasing: %d then %d", records[0].Seq, records[1].Seq)
	}
}

func TestSaveEndpointUnknownDocument(t *testing.T) {
	store, doc := testSetup(t)

	in := sampleSave(doc)
	in.DocumentID = "no-such-document"
	_, err := store.SaveEndpoint(context.Background(), in)
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubgroupSavePreservesLatestResponse(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	main := sampleSave(doc)
	id, err := store.SaveEndpoint(ctx, main)
	if err != nil {
		t.Fatal(err)
	}

	sub := main
	sub.PromptText = "Describe the subgroup analyses for the adverse events endpoint."
	sub.ResponseBody = "Subgroup analysis by age showed no interaction."
	sub.IsSubgroup = true
	if _, err := store.SaveEndpoint(ctx, sub); err != nil {
		t.Fatal(err)
	}

	ep, err := store.GetEndpoint(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if ep.LatestResponse != main.ResponseBody {
		t.Errorf("subgroup save overwrote LatestResponse: %q", ep.LatestResponse)
	}

	subs, err := store.SubgroupHistory(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d subgroup records, want 1", len(subs))
	}
	if !subs[0].IsSubgroup {
		t.Errorf("record not tagged as subgroup")
	}
	if subs[0].ResponseBody != sub.ResponseBody {
		t.Errorf("subgroup record = %q", subs[0].ResponseBody)
	}
}

// --- catalog tests ---

func TestCatalogGroupsByCategory(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	saves := []struct{ category, name string }{
		{"safety", "adverse events"},
		{"efficacy", "overall survival"},
		{"safety", "serious adverse events"},
		{"efficacy", "progression-free survival"},
	}
	for _, sv := range saves {
		in := sampleSave(doc)
		in.Category = sv.category
		in.Name = sv.name
		if _, err := store.SaveEndpoint(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	catalog, err := store.Catalog(ctx, doc.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 2 {
		t.Fatalf("got %d categories, want 2: %+v", len(catalog), catalog)
	}
	if catalog[0].Category != "efficacy" || catalog[1].Category != "safety" {
		t.Errorf("category order = %q, %q", catalog[0].Category, catalog[1].Category)
	}
	if len(catalog[0].Endpoints) != 2 || len(catalog[1].Endpoints) != 2 {
		t.Errorf("endpoint counts = %d, %d, want 2 and 2",
			len(catalog[0].Endpoints), len(catalog[1].Endpoints))
	}
}

func TestCatalogReadAfterWrite(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	if _, err := store.SaveEndpoint(ctx, sampleSave(doc)); err != nil {
		t.Fatal(err)
	}

	catalog, err := store.Catalog(ctx, doc.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 1 || len(catalog[0].Endpoints) != 1 {
		t.Fatalf("save not visible in catalog: %+v", catalog)
	}
	if catalog[0].Endpoints[0].Name != "adverse events" {
		t.Errorf("endpoint name = %q", catalog[0].Endpoints[0].Name)
	}
}

func TestCatalogCategoryFilter(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	for _, cat := range []string{"safety", "efficacy"} {
		in := sampleSave(doc)
		in.Category = cat
		if _, err := store.SaveEndpoint(ctx, in); err != nil {
			t.Fatal(err)
		}
	}

	catalog, err := store.Catalog(ctx, doc.ID, "safety")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 1 || catalog[0].Category != "safety" {
		t.Fatalf("filtered catalog = %+v", catalog)
	}
}

func TestCatalogEmptyDocument(t *testing.T) {
	store, doc := testSetup(t)

	catalog, err := store.Catalog(context.Background(), doc.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 0 {
		t.Errorf("catalog = %+v, want empty", catalog)
	}
}

func TestExportCatalogYAML(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	if _, err := store.SaveEndpoint(ctx, sampleSave(doc)); err != nil {
		t.Fatal(err)
	}

	path, err := store.ExportCatalogYAML(ctx, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Errorf("export file is empty")
	}
}

// --- document tests ---

func TestRegisterDocumentUniqueIDs(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()

	a, err := store.RegisterDocument(ctx, "same-name.pdf")
	if err != nil {
		t.Fatal(err)
	}
	b, err := store.RegisterDocument(ctx, "same-name.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("two registrations of the same file name share an ID: %q", a.ID)
	}
}

func TestFindDocumentByFileName(t *testing.T) {
	store, _ := testSetup(t)
	ctx := context.Background()

	if _, err := store.FindDocumentByFileName(ctx, "missing.pdf"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	doc, err := store.RegisterDocument(ctx, "report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	found, err := store.FindDocumentByFileName(ctx, "report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if found.ID != doc.ID {
		t.Errorf("found %q, want %q", found.ID, doc.ID)
	}
}

func TestClearDocumentCascades(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	id, err := store.SaveEndpoint(ctx, sampleSave(doc))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.PutThread(ctx, doc.ID, "general", "thread-123"); err != nil {
		t.Fatal(err)
	}

	if err := store.ClearDocument(ctx, doc.ID); err != nil {
		t.Fatalf("ClearDocument: %v", err)
	}

	if _, err := store.GetDocument(ctx, doc.ID); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("document still present: %v", err)
	}
	if _, err := store.GetEndpoint(ctx, id); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("endpoint still present: %v", err)
	}
	records, err := store.History(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("ledger still has %d records", len(records))
	}
	ref, err := store.GetThread(ctx, doc.ID, "general")
	if err != nil {
		t.Fatal(err)
	}
	if ref != "" {
		t.Errorf("thread still present: %q", ref)
	}
}

func TestClearDocumentUnknown(t *testing.T) {
	store, _ := testSetup(t)

	err := store.ClearDocument(context.Background(), "no-such-document")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// --- thread registry tests ---

func TestThreadPutGetDrop(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	ref, err := store.GetThread(ctx, doc.ID, "general")
	if err != nil {
		t.Fatal(err)
	}
	if ref != "" {
		t.Fatalf("unexpected thread %q before any put", ref)
	}

	if err := store.PutThread(ctx, doc.ID, "general", "thread-a"); err != nil {
		t.Fatal(err)
	}
	if err := store.PutThread(ctx, doc.ID, "general", "thread-b"); err != nil {
		t.Fatal(err)
	}

	ref, err = store.GetThread(ctx, doc.ID, "general")
	if err != nil {
		t.Fatal(err)
	}
	if ref != "thread-b" {
		t.Errorf("GetThread = %q, want thread-b", ref)
	}

	if err := store.DropThread(ctx, doc.ID, "general"); err != nil {
		t.Fatal(err)
	}
	ref, err = store.GetThread(ctx, doc.ID, "general")
	if err != nil {
		t.Fatal(err)
	}
	if ref != "" {
		t.Errorf("thread survived drop: %q", ref)
	}
}

func TestThreadContextsIndependent(t *testing.T) {
	store, doc := testSetup(t)
	ctx := context.Background()

	if err := store.PutThread(ctx, doc.ID, "general", "thread-g"); err != nil {
		t.Fatal(err)
	}
	if err := store.PutThread(ctx, doc.ID, "section:methods", "thread-m"); err != nil {
		t.Fatal(err)
	}

	g, err := store.GetThread(ctx, doc.ID, "general")
	if err != nil {
		t.Fatal(err)
	}
	m, err := store.GetThread(ctx, doc.ID, "section:methods")
	if err != nil {
		t.Fatal(err)
	}
	if g != "thread-g" || m != "thread-m" {
		t.Errorf("contexts leaked: general=%q methods=%q", g, m)
	}
}
