// Package session dispatches decoded protocol requests: validate, pass the
// admission controller, execute against the query service, and shape the
// response. Any failure on the way is reported as an error so the
// transport closes the connection without a response frame — the client
// sees a clean close for rate limiting, malformed requests, and server
// errors alike.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/asmap/asdird/internal/asdir/common/log"
	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/services/admission"
)

var (
	// ErrRefused means the admission controller rejected the request.
	ErrRefused = errors.New("refused by admission controller")
	// ErrInvalidRequest means the request failed semantic validation.
	ErrInvalidRequest = errors.New("invalid request")
)

// Queries is the slice of the query service the session consumes.
type Queries interface {
	PageSize() int
	ListPage(ctx context.Context, page uint32) ([]domain.AsRecord, uint64, error)
	MatchingCount(ctx context.Context, f *domain.Filter) (uint64, error)
	ListFiltered(ctx context.Context, f *domain.Filter) ([]domain.AsRecord, error)
	Detail(ctx context.Context, asn uint32) (domain.AsRecord, bool, error)
}

// Admission is the per-client quota check, shared by all connections.
type Admission interface {
	AllowListing(key string, n uint64) bool
	AllowDetail(key string) bool
}

// Presence answers "might this ASN be stored" without a store lookup.
type Presence interface {
	MayContain(asn uint32) bool
}

type Handler struct {
	queries   Queries
	admission Admission
	presence  Presence
	logger    log.Logger
}

type Options struct {
	Queries   Queries
	Admission Admission
	Presence  Presence
	Logger    log.Logger
}

func New(opts Options) *Handler {
	return &Handler{
		queries:   opts.Queries,
		admission: opts.Admission,
		presence:  opts.Presence,
		logger:    opts.Logger,
	}
}

// Handle processes one request and returns the response frame to send.
// A non-nil error means no response is sent and the connection closes.
// Whether the connection closes after a successful response is decided by
// the request kind (see domain.RequestKind.OneShot).
func (h *Handler) Handle(ctx context.Context, req domain.Request, clientAddr net.Addr) (domain.Response, error) {
	if err := req.Validate(); err != nil {
		return domain.Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	key := admission.ClientKey(clientAddr)

	switch req.Kind {
	case domain.KindListPage:
		return h.listPage(ctx, key, req.Page)
	case domain.KindListFiltered:
		return h.listFiltered(ctx, key, req.Filter)
	case domain.KindDetail:
		return h.detail(ctx, key, req.ASN)
	default:
		// Validate already rejects unknown kinds.
		return domain.Response{}, fmt.Errorf("%w: kind %d", ErrInvalidRequest, uint8(req.Kind))
	}
}

func (h *Handler) listPage(ctx context.Context, key string, page uint32) (domain.Response, error) {
	if !h.admission.AllowListing(key, uint64(h.queries.PageSize())) {
		return domain.Response{}, fmt.Errorf("%w: listing page for %s", ErrRefused, key)
	}
	recs, pages, err := h.queries.ListPage(ctx, page)
	if err != nil {
		return domain.Response{}, err
	}
	return domain.Response{
		Kind:       domain.KindListPage,
		Page:       page,
		TotalPages: pages,
		Records:    recs,
	}, nil
}

func (h *Handler) listFiltered(ctx context.Context, key string, f *domain.Filter) (domain.Response, error) {
	// Count first, charge the quota that many tokens, only then fetch.
	// The count query runs even for requests that end up refused; that is
	// the accepted price of not charging for empty result sets.
	count, err := h.queries.MatchingCount(ctx, f)
	if err != nil {
		return domain.Response{}, err
	}
	if !h.admission.AllowListing(key, count) {
		return domain.Response{}, fmt.Errorf("%w: filtered listing of %d records for %s", ErrRefused, count, key)
	}
	recs, err := h.queries.ListFiltered(ctx, f)
	if err != nil {
		return domain.Response{}, err
	}
	return domain.Response{
		Kind:    domain.KindListFiltered,
		Filter:  f,
		Records: recs,
	}, nil
}

func (h *Handler) detail(ctx context.Context, key string, asn uint32) (domain.Response, error) {
	if !h.admission.AllowDetail(key) {
		return domain.Response{}, fmt.Errorf("%w: detail lookup for %s", ErrRefused, key)
	}
	if h.presence != nil && !h.presence.MayContain(asn) {
		// Definitely absent; skip the store round-trip. Not-found is a
		// normal response payload, never a connection-closing error.
		return domain.Response{Kind: domain.KindDetail, Found: false}, nil
	}
	rec, found, err := h.queries.Detail(ctx, asn)
	if err != nil {
		return domain.Response{}, err
	}
	resp := domain.Response{Kind: domain.KindDetail, Found: found}
	if found {
		resp.Record = &rec
	}
	return resp, nil
}
