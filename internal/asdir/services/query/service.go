package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/asmap/asdird/internal/asdir/common/log"
	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/repos/records"
)

// Service answers the listing and detail operations of the protocol
// against the record store.
type Service struct {
	store    Store
	pageSize int
	logger   log.Logger
}

type Options struct {
	Store    Store
	PageSize int
	Logger   log.Logger
}

func New(opts Options) *Service {
	return &Service{
		store:    opts.Store,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
	}
}

// PageSize returns the fixed page size listings are served with.
func (s *Service) PageSize() int { return s.pageSize }

// ListPage returns one default-filter page in ascending ASN order plus the
// total page count. A page index at or past the page count yields an empty
// window, never an error; total_pages is integer division, so the final
// partial page falls outside the addressable range.
func (s *Service) ListPage(ctx context.Context, page uint32) ([]domain.AsRecord, uint64, error) {
	recs, total, err := s.store.GetPage(nil, pageSkip(page, s.pageSize), s.pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("listing page %d: %w", page, err)
	}
	pages := totalPages(total, s.pageSize)
	if uint64(page) >= pages {
		recs = nil
	}
	s.logger.Debug(map[string]any{
		"page":    page,
		"records": len(recs),
		"total":   total,
	}, "served listing page")
	return recs, pages, nil
}

// MatchingCount returns the number of records the filter matches. The
// session layer charges the listing quota with this before fetching.
func (s *Service) MatchingCount(ctx context.Context, f *domain.Filter) (uint64, error) {
	count, err := s.store.Count(StorePredicate(Compile(f)))
	if err != nil {
		return 0, fmt.Errorf("counting matches: %w", err)
	}
	return count, nil
}

// ListFiltered returns every record the filter matches, ascending by ASN.
func (s *Service) ListFiltered(ctx context.Context, f *domain.Filter) ([]domain.AsRecord, error) {
	recs, total, err := s.store.GetPage(StorePredicate(Compile(f)), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("filtered listing: %w", err)
	}
	s.logger.Debug(map[string]any{
		"records": len(recs),
		"total":   total,
	}, "served filtered listing")
	return recs, nil
}

// Detail returns the full record for asn. found=false is the ordinary
// not-found outcome, not an error.
func (s *Service) Detail(ctx context.Context, asn uint32) (rec domain.AsRecord, found bool, err error) {
	rec, err = s.store.Get(asn)
	if errors.Is(err, records.ErrNotFound) {
		return domain.AsRecord{}, false, nil
	}
	if err != nil {
		return domain.AsRecord{}, false, fmt.Errorf("detail lookup for %d: %w", asn, err)
	}
	return rec, true, nil
}
