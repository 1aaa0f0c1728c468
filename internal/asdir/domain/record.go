// Package domain defines the core types of the AS directory: the per-ASN
// record with its independently-sourced enrichment sections, the query
// filter, and the session protocol messages. The package is dependency-free;
// serialization tags are the only concession to the edges.
package domain

import "fmt"

// AsRecord is one directory entry, keyed by its globally unique ASN.
// The three enrichment sections come from separate feeds and are
// independently optional: a record exists as soon as any one feed has
// been ingested for its ASN.
type AsRecord struct {
	ASN        uint32        `msgpack:"asn"`
	Rank       *RankInfo     `msgpack:"rank,omitempty"`
	Registry   *RegistryInfo `msgpack:"registry,omitempty"`
	Categories []Category    `msgpack:"categories,omitempty"`
}

// HasOrganization reports whether the rank feed supplied an organization
// name for this AS.
func (r *AsRecord) HasOrganization() bool {
	return r.Rank != nil && r.Rank.Organization != nil && *r.Rank.Organization != ""
}

// Layer1Categories returns the set of top-level category names assigned to
// this AS.
func (r *AsRecord) Layer1Categories() map[string]struct{} {
	out := make(map[string]struct{}, len(r.Categories))
	for _, c := range r.Categories {
		out[c.Layer1] = struct{}{}
	}
	return out
}

// Validate checks structural invariants that hold for every stored record.
func (r *AsRecord) Validate() error {
	if r.ASN == 0 {
		return fmt.Errorf("asn must be non-zero")
	}
	if r.Rank != nil {
		if len(r.Rank.CountryISO) != 0 && len(r.Rank.CountryISO) != 2 {
			return fmt.Errorf("asn %d: country iso must be a 2-letter code, got %q", r.ASN, r.Rank.CountryISO)
		}
	}
	return nil
}

// RankInfo is the centrality/influence section sourced from the rank feed.
type RankInfo struct {
	Rank         uint64  `msgpack:"rank"`
	Organization *string `msgpack:"organization,omitempty"`
	CountryISO   string  `msgpack:"country_iso"`
	CountryName  string  `msgpack:"country_name"`
	Coordinates  Coord   `msgpack:"coordinates"`
	Degree       Degree  `msgpack:"degree"`
	PrefixCount  uint64  `msgpack:"prefix_count"`
	AddressCount uint64  `msgpack:"address_count"`
	Name         string  `msgpack:"name"`
}

// Degree holds the AS-relationship degree counters from the rank feed.
type Degree struct {
	Provider uint32 `msgpack:"provider"`
	Peer     uint32 `msgpack:"peer"`
	Customer uint32 `msgpack:"customer"`
	Total    uint32 `msgpack:"total"`
	Transit  uint32 `msgpack:"transit"`
	Sibling  uint32 `msgpack:"sibling"`
}

// Coord is a WGS84 coordinate pair.
type Coord struct {
	Lat float64 `msgpack:"lat"`
	Lon float64 `msgpack:"lon"`
}

// RegistryInfo is the prefix-ownership section sourced from the
// network-registry dump.
type RegistryInfo struct {
	CountryCode    string          `msgpack:"country_code"`
	EntityName     string          `msgpack:"entity_name"`
	InUse          bool            `msgpack:"in_use"`
	IPv4Prefixes   []PrefixEntry   `msgpack:"ipv4_prefixes,omitempty"`
	IPv6Prefixes   []PrefixEntry   `msgpack:"ipv6_prefixes,omitempty"`
	Peers          []uint32        `msgpack:"peers,omitempty"`
	Registry       Registry        `msgpack:"registry"`
	ExchangePoints []ExchangeEntry `msgpack:"exchange_points,omitempty"`
}

// PrefixEntry is one announced prefix, optionally with allocation details.
type PrefixEntry struct {
	Range   string         `msgpack:"range"` // CIDR notation
	Details *PrefixDetails `msgpack:"details,omitempty"`
}

// PrefixDetails describes the allocation behind a prefix.
type PrefixDetails struct {
	Allocation         *string   `msgpack:"allocation,omitempty"` // CIDR notation
	AllocationCountry  *string   `msgpack:"allocation_country,omitempty"`
	AllocationRegistry *Registry `msgpack:"allocation_registry,omitempty"`
	Entity             string    `msgpack:"entity"`
	Name               string    `msgpack:"name"`
	OriginASNs         []uint32  `msgpack:"origin_asns,omitempty"`
	RegistryName       string    `msgpack:"registry_name"`
}

// ExchangeEntry is an internet exchange point the AS is present at.
type ExchangeEntry struct {
	Exchange string  `msgpack:"exchange"`
	IPv4     string  `msgpack:"ipv4,omitempty"`
	IPv6     string  `msgpack:"ipv6,omitempty"`
	Name     *string `msgpack:"name,omitempty"`
	Speed    uint32  `msgpack:"speed"`
}

// Category is one entry of the two-level industry taxonomy assigned to an AS.
type Category struct {
	Layer1 string `msgpack:"layer1"`
	Layer2 string `msgpack:"layer2"`
}
