// Package query turns structured filters into store-level predicates and
// serves the listing and detail lookups of the session protocol.
package query

import (
	"github.com/asmap/asdird/internal/asdir/domain"
	"github.com/asmap/asdird/internal/asdir/repos/records"
)

// Predicate is a node of the compiled filter expression tree. The tree is
// the single place where filter semantics live; stores evaluate it as an
// opaque match function.
type Predicate interface {
	Matches(r *domain.AsRecord) bool
}

// And matches when every child matches. An empty And matches everything,
// which is how an empty Filter compiles.
type And []Predicate

func (a And) Matches(r *domain.AsRecord) bool {
	for _, p := range a {
		if !p.Matches(r) {
			return false
		}
	}
	return true
}

// Country requires the rank feed's country to equal ISO, or to differ from
// it when Exclude is set. Records without rank data never satisfy the
// equality form; they do satisfy the exclusion form.
type Country struct {
	ISO     string
	Exclude bool
}

func (c Country) Matches(r *domain.AsRecord) bool {
	if r.Rank == nil {
		return c.Exclude
	}
	if c.Exclude {
		return r.Rank.CountryISO != c.ISO
	}
	return r.Rank.CountryISO == c.ISO
}

// GeoBox requires coordinates within the closed lat/lon box. Boxes never
// wrap the antimeridian.
type GeoBox struct {
	Bounds domain.GeoBounds
}

func (g GeoBox) Matches(r *domain.AsRecord) bool {
	if r.Rank == nil {
		return false
	}
	c := r.Rank.Coordinates
	return c.Lat >= g.Bounds.SouthWest.Lat && c.Lat <= g.Bounds.NorthEast.Lat &&
		c.Lon >= g.Bounds.SouthWest.Lon && c.Lon <= g.Bounds.NorthEast.Lon
}

// Range requires a rank-feed numeric field within [Min, Max]. Field
// extracts the value; absent rank data never matches.
type Range struct {
	Min, Max uint64
	Field    func(*domain.RankInfo) uint64
}

func (rg Range) Matches(r *domain.AsRecord) bool {
	if r.Rank == nil {
		return false
	}
	v := rg.Field(r.Rank)
	return v >= rg.Min && v <= rg.Max
}

// HasOrg requires the organization field to be present (or absent).
type HasOrg struct {
	Present bool
}

func (h HasOrg) Matches(r *domain.AsRecord) bool {
	return r.HasOrganization() == h.Present
}

// CategorySuperset requires every wanted layer-1 category to be present on
// the record — all of them, not any of them, so multi-category drill-down
// narrows instead of widening.
type CategorySuperset struct {
	Want []string
}

func (c CategorySuperset) Matches(r *domain.AsRecord) bool {
	have := r.Layer1Categories()
	for _, w := range c.Want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}

// Compile translates a Filter into its predicate tree. A nil or empty
// filter compiles to a match-everything predicate.
func Compile(f *domain.Filter) Predicate {
	if f == nil {
		return And{}
	}
	var and And
	if f.CountryISO != nil {
		and = append(and, Country{ISO: *f.CountryISO, Exclude: f.ExcludeCountry})
	}
	if f.Bounds != nil {
		and = append(and, GeoBox{Bounds: *f.Bounds})
	}
	if f.Addresses != nil {
		and = append(and, Range{
			Min:   f.Addresses.Min,
			Max:   f.Addresses.Max,
			Field: func(r *domain.RankInfo) uint64 { return r.AddressCount },
		})
	}
	if f.Rank != nil {
		and = append(and, Range{
			Min:   f.Rank.Min,
			Max:   f.Rank.Max,
			Field: func(r *domain.RankInfo) uint64 { return r.Rank },
		})
	}
	switch f.HasOrg {
	case domain.OrgPresent:
		and = append(and, HasOrg{Present: true})
	case domain.OrgAbsent:
		and = append(and, HasOrg{Present: false})
	}
	if want := f.WantedCategories(); want != nil {
		and = append(and, CategorySuperset{Want: want})
	}
	return and
}

// StorePredicate adapts a compiled tree to the records.Store contract.
func StorePredicate(p Predicate) records.Predicate {
	if p == nil {
		return nil
	}
	return p.Matches
}
