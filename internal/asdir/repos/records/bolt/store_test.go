package bolt

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/repos/records"
)

func newTestStore(t *testing.T) records.Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "asdir.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func simpleRecords(asns ...uint32) []domain.AsRecord {
	out := make([]domain.AsRecord, 0, len(asns))
	for _, asn := range asns {
		out = append(out, domain.AsRecord{ASN: asn})
	}
	return out
}

func TestInsertThenGet(t *testing.T) {
	s := newTestStore(t)
	org := "Technical University of Gdansk"
	rec := domain.AsRecord{
		ASN: 5550,
		Rank: &domain.RankInfo{
			Rank:         5476,
			Organization: &org,
			CountryISO:   "PL",
			CountryName:  "Poland",
			Coordinates:  domain.Coord{Lat: 54.37, Lon: 18.56},
			Degree:       domain.Degree{Provider: 2, Peer: 10, Customer: 2, Total: 14, Transit: 13, Sibling: 1},
			PrefixCount:  1,
			AddressCount: 65536,
			Name:         "TASK",
		},
	}
	res, err := s.InsertMany([]domain.AsRecord{rec})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if res.Inserted != 1 || res.Duplicates != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	got, err := s.Get(5550)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Rank == nil || got.Rank.Rank != 5476 {
		t.Errorf("rank info did not round-trip: %+v", got.Rank)
	}
	if got.Rank.Organization == nil || *got.Rank.Organization != org {
		t.Errorf("organization did not round-trip")
	}
	if got.Registry != nil || got.Categories != nil {
		t.Errorf("absent sections should stay absent")
	}
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(42)
	if !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertingTwiceDoesNotDuplicate(t *testing.T) {
	s := newTestStore(t)
	batch := simpleRecords(5551, 5552, 5553)

	first, err := s.InsertMany(batch)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if first.Inserted != 3 || first.Duplicates != 0 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := s.InsertMany(batch)
	if err != nil {
		t.Fatalf("second insert must not be a hard failure: %v", err)
	}
	if second.Inserted != 0 || second.Duplicates != 3 {
		t.Fatalf("expected 3 duplicates, got %+v", second)
	}

	count, err := s.Count(nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 stored records, got %d", count)
	}
}

func TestOverlappingBatchesAppendOnlyNewOnes(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertMany(simpleRecords(1, 2, 3)); err != nil {
		t.Fatalf("batch A failed: %v", err)
	}
	res, err := s.InsertMany(simpleRecords(3, 4, 5))
	if err != nil {
		t.Fatalf("batch B failed: %v", err)
	}
	if res.Inserted != 2 || res.Duplicates != 1 {
		t.Fatalf("unexpected result for batch B: %+v", res)
	}

	asns, err := s.ASNs()
	if err != nil {
		t.Fatalf("asns failed: %v", err)
	}
	if len(asns) != 5 {
		t.Fatalf("expected 5 distinct records, got %d", len(asns))
	}
	matches := 0
	for _, a := range asns {
		if a == 3 {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("asn 3 present %d times, want exactly once", matches)
	}
}

func TestGetPageOrderingAndWindow(t *testing.T) {
	s := newTestStore(t)
	// Insert out of order; the cursor must still return ascending ASNs.
	if _, err := s.InsertMany(simpleRecords(30, 10, 50, 20, 40)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	page, total, err := s.GetPage(nil, 1, 2)
	if err != nil {
		t.Fatalf("get page failed: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(page) != 2 || page[0].ASN != 20 || page[1].ASN != 30 {
		t.Errorf("unexpected window: %+v", page)
	}

	// Window beyond the last record is empty, not an error.
	page, total, err = s.GetPage(nil, 10, 2)
	if err != nil {
		t.Fatalf("get page failed: %v", err)
	}
	if total != 5 || len(page) != 0 {
		t.Errorf("expected empty window with total 5, got %d records, total %d", len(page), total)
	}
}

func TestGetPageWithPredicate(t *testing.T) {
	s := newTestStore(t)
	recs := []domain.AsRecord{
		{ASN: 1, Rank: &domain.RankInfo{CountryISO: "PL"}},
		{ASN: 2, Rank: &domain.RankInfo{CountryISO: "DE"}},
		{ASN: 3, Rank: &domain.RankInfo{CountryISO: "PL"}},
	}
	if _, err := s.InsertMany(recs); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	onlyPL := func(r *domain.AsRecord) bool {
		return r.Rank != nil && r.Rank.CountryISO == "PL"
	}
	page, total, err := s.GetPage(onlyPL, 0, -1)
	if err != nil {
		t.Fatalf("get page failed: %v", err)
	}
	if total != 2 || len(page) != 2 || page[0].ASN != 1 || page[1].ASN != 3 {
		t.Errorf("unexpected filtered page: total %d, %+v", total, page)
	}

	count, err := s.Count(onlyPL)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

func TestGetMany(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertMany(simpleRecords(10, 20, 30)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	got, n, err := s.GetMany([]uint32{30, 99, 10, 30})
	if err != nil {
		t.Fatalf("get many failed: %v", err)
	}
	if n != 2 || len(got) != 2 {
		t.Fatalf("expected 2 found, got %d", n)
	}
	if got[0].ASN != 10 || got[1].ASN != 30 {
		t.Errorf("expected ascending order, got %+v", got)
	}
}

func TestMergeUpdateCreatesThenEnriches(t *testing.T) {
	s := newTestStore(t)

	reg := domain.RegistryInfo{
		CountryCode: "PL",
		EntityName:  "TASK",
		InUse:       true,
		Registry:    domain.ParseRegistry("ripe"),
		Peers:       []uint32{1, 2},
	}
	// First merge for an unseen ASN creates the record.
	if err := s.MergeUpdate(5550, records.Patch{Registry: &reg}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	got, err := s.Get(5550)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Registry == nil || got.Registry.EntityName != "TASK" {
		t.Fatalf("registry info not stored: %+v", got)
	}
	if got.Rank != nil {
		t.Error("rank section must stay absent")
	}

	// Category enrichment replaces wholesale and leaves registry intact.
	cats := []domain.Category{{Layer1: "Education and Research", Layer2: "Colleges, Universities, and Professional Schools"}}
	if err := s.MergeUpdate(5550, records.Patch{Categories: &cats}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	replacement := []domain.Category{{Layer1: "Service", Layer2: "Other"}}
	if err := s.MergeUpdate(5550, records.Patch{Categories: &replacement}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	got, err = s.Get(5550)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Registry == nil || got.Registry.EntityName != "TASK" {
		t.Error("registry info lost during category merge")
	}
	if len(got.Categories) != 1 || got.Categories[0].Layer1 != "Service" {
		t.Errorf("categories must be replaced wholesale, got %+v", got.Categories)
	}
}

func TestMergeUpdateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	reg := domain.RegistryInfo{CountryCode: "DE", EntityName: "example", Registry: domain.ParseRegistry("ripe")}
	for i := 0; i < 2; i++ {
		if err := s.MergeUpdate(7, records.Patch{Registry: &reg}); err != nil {
			t.Fatalf("merge %d failed: %v", i, err)
		}
	}
	first, err := s.Get(7)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	count, err := s.Count(nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single record, got %d", count)
	}
	if first.Registry.EntityName != "example" {
		t.Errorf("unexpected record after repeated merge: %+v", first)
	}
}

func TestClearIsRepeatable(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertMany(simpleRecords(1, 2)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
	count, err := s.Count(nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty store after clear, got %d", count)
	}
	// The store must remain usable after a clear.
	if _, err := s.InsertMany(simpleRecords(3)); err != nil {
		t.Fatalf("insert after clear failed: %v", err)
	}
}
