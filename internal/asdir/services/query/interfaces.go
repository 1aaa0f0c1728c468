package query

import (
	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/repos/records"
)

// Store is the slice of the record store the query service consumes.
type Store interface {
	Get(asn uint32) (domain.AsRecord, error)
	GetPage(pred records.Predicate, skip, limit int) ([]domain.AsRecord, uint64, error)
	Count(pred records.Predicate) (uint64, error)
}
