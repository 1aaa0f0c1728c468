package domain

import "fmt"

// OrgConstraint is the tri-state organization filter: no constraint, the
// organization field must be present, or it must be absent.
type OrgConstraint uint8

const (
	OrgAny OrgConstraint = iota
	OrgPresent
	OrgAbsent
)

// CategoryAny is the sentinel a client sends to mean "no category
// constraint"; its presence disables category matching entirely.
const CategoryAny = "Any"

// Filter is the structured, bounded query input. Absent fields impose no
// constraint; an entirely empty Filter matches every record.
type Filter struct {
	CountryISO *string `msgpack:"country_iso,omitempty"`
	// ExcludeCountry inverts the country constraint: match records whose
	// country differs from CountryISO. Meaningless when CountryISO is unset.
	ExcludeCountry bool          `msgpack:"exclude_country,omitempty"`
	Bounds         *GeoBounds    `msgpack:"bounds,omitempty"`
	Addresses      *ValueRange   `msgpack:"addresses,omitempty"`
	Rank           *ValueRange   `msgpack:"rank,omitempty"`
	HasOrg         OrgConstraint `msgpack:"has_org,omitempty"`
	// Categories is matched as a superset: every requested layer-1 category
	// must be present on the record. The CategoryAny sentinel disables it.
	Categories []string `msgpack:"categories,omitempty"`
}

// GeoBounds is a closed lat/lon box. Boxes crossing the antimeridian are
// not supported: SouthWest.Lon must not exceed NorthEast.Lon.
type GeoBounds struct {
	NorthEast Coord `msgpack:"northeast"`
	SouthWest Coord `msgpack:"southwest"`
}

// ValueRange is a closed [Min, Max] interval.
type ValueRange struct {
	Min uint64 `msgpack:"min"`
	Max uint64 `msgpack:"max"`
}

// Validate rejects filters that cannot describe any result set.
func (f *Filter) Validate() error {
	if f.CountryISO != nil && len(*f.CountryISO) != 2 {
		return fmt.Errorf("country iso must be a 2-letter code, got %q", *f.CountryISO)
	}
	if f.Bounds != nil {
		if f.Bounds.SouthWest.Lat > f.Bounds.NorthEast.Lat {
			return fmt.Errorf("geo bounds: southwest lat %v above northeast lat %v",
				f.Bounds.SouthWest.Lat, f.Bounds.NorthEast.Lat)
		}
		if f.Bounds.SouthWest.Lon > f.Bounds.NorthEast.Lon {
			return fmt.Errorf("geo bounds: southwest lon %v beyond northeast lon %v",
				f.Bounds.SouthWest.Lon, f.Bounds.NorthEast.Lon)
		}
	}
	if f.Addresses != nil && f.Addresses.Min > f.Addresses.Max {
		return fmt.Errorf("address range: min %d above max %d", f.Addresses.Min, f.Addresses.Max)
	}
	if f.Rank != nil && f.Rank.Min > f.Rank.Max {
		return fmt.Errorf("rank range: min %d above max %d", f.Rank.Min, f.Rank.Max)
	}
	if f.HasOrg > OrgAbsent {
		return fmt.Errorf("unknown organization constraint %d", f.HasOrg)
	}
	return nil
}

// WantedCategories returns the layer-1 categories the filter actually
// constrains on, or nil when the list is empty or contains the sentinel.
func (f *Filter) WantedCategories() []string {
	if len(f.Categories) == 0 {
		return nil
	}
	for _, c := range f.Categories {
		if c == CategoryAny {
			return nil
		}
	}
	return f.Categories
}
