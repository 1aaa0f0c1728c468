// Package records defines the persistence contract of the AS directory.
// Any store offering these operations satisfies the core; the bolt
// subpackage is the embedded implementation used in production.
package records

import (
	"errors"

	"github.com/asmap/asdird/internal/asdir/domain"
)

// ErrNotFound is returned by Get for an ASN with no stored record.
var ErrNotFound = errors.New("as record not found")

// Predicate is the store-level filter a compiled query evaluates against
// each record. A nil Predicate matches everything.
type Predicate func(*domain.AsRecord) bool

// InsertResult reports the outcome of a bulk insert. Duplicates counts
// records rejected by the ASN uniqueness constraint; every other record in
// the batch is still committed. Hard failures are reported as errors, never
// folded into this struct.
type InsertResult struct {
	Inserted   int
	Duplicates int
}

// Patch carries the partial fields of a merge-style update. Nil fields are
// left untouched. Categories is a wholesale replacement when set, matching
// the category feed's re-ingestion semantics; Registry and Rank replace
// only their own section of the record.
type Patch struct {
	Rank       *domain.RankInfo
	Registry   *domain.RegistryInfo
	Categories *[]domain.Category
}

// Store is the keyed AS record collection. The store itself enforces ASN
// uniqueness; callers perform no additional locking or duplicate checks.
type Store interface {
	// Get returns the record for asn, or ErrNotFound.
	Get(asn uint32) (domain.AsRecord, error)

	// GetMany returns the records for the given ASNs in ascending ASN
	// order, silently skipping absent ones, plus the count found.
	GetMany(asns []uint32) ([]domain.AsRecord, uint64, error)

	// GetPage returns a window of matching records in ascending ASN order
	// together with the total matching count (independent of the window).
	// A negative limit means no upper bound.
	GetPage(pred Predicate, skip, limit int) ([]domain.AsRecord, uint64, error)

	// Count returns the number of records matching pred.
	Count(pred Predicate) (uint64, error)

	// InsertMany applies the batch unordered. Records whose ASN already
	// exists are counted in InsertResult.Duplicates and skipped; any other
	// failure aborts with an error.
	InsertMany(recs []domain.AsRecord) (InsertResult, error)

	// MergeUpdate upserts the record for asn, applying the patch to the
	// existing record or to a fresh one if none exists. Idempotent.
	MergeUpdate(asn uint32, patch Patch) error

	// ASNs lists every stored ASN in ascending order.
	ASNs() ([]uint32, error)

	// Clear drops all records and re-prepares the store. Administrative
	// only; not reachable from the session protocol.
	Clear() error

	Close() error
}
