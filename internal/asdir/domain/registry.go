package domain

import "strings"

// RegistryKind identifies a regional internet registry.
type RegistryKind uint8

const (
	RegistryEmpty RegistryKind = iota
	RegistryRIPE
	RegistryARIN
	RegistryAPNIC
	RegistryAFRINIC
	RegistryLACNIC
	// RegistryLocal covers private or national registries that are not one
	// of the five RIRs; the raw name is kept alongside the kind.
	RegistryLocal
)

// Registry is a registry value as found in the network-registry feed.
// Local registries carry their raw name; the five RIRs and the empty value
// are fully described by Kind.
type Registry struct {
	Kind RegistryKind `msgpack:"kind"`
	Name string       `msgpack:"name,omitempty"`
}

// ParseRegistry maps a raw feed string to a Registry. Matching is
// case-insensitive and ignores surrounding whitespace; unknown non-empty
// values become local registries rather than errors.
func ParseRegistry(s string) Registry {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, "ripe"):
		return Registry{Kind: RegistryRIPE}
	case strings.EqualFold(s, "arin"):
		return Registry{Kind: RegistryARIN}
	case strings.EqualFold(s, "apnic"):
		return Registry{Kind: RegistryAPNIC}
	case strings.EqualFold(s, "afrinic"):
		return Registry{Kind: RegistryAFRINIC}
	case strings.EqualFold(s, "lacnic"):
		return Registry{Kind: RegistryLACNIC}
	case s == "":
		return Registry{Kind: RegistryEmpty}
	default:
		return Registry{Kind: RegistryLocal, Name: s}
	}
}

func (r Registry) String() string {
	switch r.Kind {
	case RegistryRIPE:
		return "RIPE"
	case RegistryARIN:
		return "ARIN"
	case RegistryAPNIC:
		return "APNIC"
	case RegistryAFRINIC:
		return "AFRINIC"
	case RegistryLACNIC:
		return "LACNIC"
	case RegistryLocal:
		return r.Name
	default:
		return ""
	}
}
