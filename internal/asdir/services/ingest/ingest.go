// Package ingest applies batches of freshly-parsed AS records to the
// record store. Parsing and validation of feed formats happen upstream;
// this service owns only the apply semantics: unordered bulk inserts with
// duplicate counting, and idempotent per-ASN enrichment merges.
package ingest

import (
	"context"
	"fmt"

	"github.com/asmap/asdird/internal/asdir/common/log"
	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/repos/records"
)

// Store is the slice of the record store the ingestion path consumes.
type Store interface {
	InsertMany(recs []domain.AsRecord) (records.InsertResult, error)
	MergeUpdate(asn uint32, patch records.Patch) error
	Clear() error
}

// Presence receives ASNs as they become present in the store. Optional.
type Presence interface {
	Add(asn uint32)
}

// Report is the outcome of a successful batch import. SkippedDuplicates is
// a warning-level detail, not a failure: re-running a batch is always safe.
type Report struct {
	Applied           int
	SkippedDuplicates int
}

type Service struct {
	store    Store
	presence Presence
	logger   log.Logger
}

type Options struct {
	Store    Store
	Presence Presence
	Logger   log.Logger
}

func New(opts Options) *Service {
	return &Service{
		store:    opts.Store,
		presence: opts.Presence,
		logger:   opts.Logger,
	}
}

// ImportRank bulk-inserts a batch from the rank feed. The store applies
// the batch unordered; existing ASNs are skipped and counted. Any hard
// store error fails the whole operation even if parts of the batch were
// written — re-running is safe because the dedup constraint holds.
func (s *Service) ImportRank(ctx context.Context, recs []domain.AsRecord) (Report, error) {
	res, err := s.store.InsertMany(recs)
	if err != nil {
		return Report{}, fmt.Errorf("importing rank batch: %w", err)
	}
	if s.presence != nil {
		for i := range recs {
			s.presence.Add(recs[i].ASN)
		}
	}
	if res.Duplicates > 0 {
		s.logger.Warn(map[string]any{
			"inserted":   res.Inserted,
			"duplicates": res.Duplicates,
		}, "rank import skipped duplicates")
	} else {
		s.logger.Info(map[string]any{"inserted": res.Inserted}, "rank import applied")
	}
	return Report{Applied: res.Inserted, SkippedDuplicates: res.Duplicates}, nil
}

// MergeRegistry enriches one AS with registry data, creating the record if
// no feed has seen the ASN yet. Field-wise merge: the rank and category
// sections are untouched. Applying the same info twice yields the same
// record.
func (s *Service) MergeRegistry(ctx context.Context, asn uint32, info domain.RegistryInfo) error {
	if err := s.store.MergeUpdate(asn, records.Patch{Registry: &info}); err != nil {
		return fmt.Errorf("merging registry info for %d: %w", asn, err)
	}
	if s.presence != nil {
		s.presence.Add(asn)
	}
	return nil
}

// ReplaceCategories enriches one AS with category data. Unlike registry
// enrichment this replaces the category list wholesale on re-ingestion.
func (s *Service) ReplaceCategories(ctx context.Context, asn uint32, cats []domain.Category) error {
	if err := s.store.MergeUpdate(asn, records.Patch{Categories: &cats}); err != nil {
		return fmt.Errorf("replacing categories for %d: %w", asn, err)
	}
	if s.presence != nil {
		s.presence.Add(asn)
	}
	return nil
}

// Reset drops the whole directory. Administrative operation for test and
// rebuild flows; never reachable from the session protocol. The presence
// filter is not rebuilt here — stale positives only cost a store lookup.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clearing record store: %w", err)
	}
	s.logger.Info(nil, "record store cleared")
	return nil
}
