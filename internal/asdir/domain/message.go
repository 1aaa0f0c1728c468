package domain

import "fmt"

// RequestKind tags the session protocol request/response unions.
type RequestKind uint8

const (
	// KindListPage requests one default-ordered page; the connection stays
	// open for further requests afterwards.
	KindListPage RequestKind = 1
	// KindListFiltered requests every record matching a filter in a single
	// response; the server closes the connection after answering.
	KindListFiltered RequestKind = 2
	// KindDetail requests the full record for one ASN; the server closes
	// the connection after answering.
	KindDetail RequestKind = 3
)

// OneShot reports whether the server closes the connection after
// responding to this request kind.
func (k RequestKind) OneShot() bool {
	return k != KindListPage
}

func (k RequestKind) String() string {
	switch k {
	case KindListPage:
		return "list_page"
	case KindListFiltered:
		return "list_filtered"
	case KindDetail:
		return "detail"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Request is the client-to-server union. Only the field matching Kind is
// meaningful.
type Request struct {
	Kind   RequestKind `msgpack:"kind"`
	Page   uint32      `msgpack:"page,omitempty"`
	Filter *Filter     `msgpack:"filter,omitempty"`
	ASN    uint32      `msgpack:"asn,omitempty"`
}

// Validate checks that the request is semantically usable before it is
// dispatched. A failure here closes the connection without a response.
func (r *Request) Validate() error {
	switch r.Kind {
	case KindListPage:
		return nil
	case KindListFiltered:
		if r.Filter == nil {
			return fmt.Errorf("filtered listing without a filter")
		}
		return r.Filter.Validate()
	case KindDetail:
		if r.ASN == 0 {
			return fmt.Errorf("detail lookup without an asn")
		}
		return nil
	default:
		return fmt.Errorf("unsupported request kind %d", uint8(r.Kind))
	}
}

// Response is the server-to-client union mirroring Request. For
// KindListPage Page/TotalPages/Records are set; for KindListFiltered the
// echoed Filter and Records; for KindDetail Record and Found, where
// Found=false is the ordinary not-found payload.
type Response struct {
	Kind       RequestKind `msgpack:"kind"`
	Page       uint32      `msgpack:"page,omitempty"`
	TotalPages uint64      `msgpack:"total_pages,omitempty"`
	Records    []AsRecord  `msgpack:"records,omitempty"`
	Filter     *Filter     `msgpack:"filter,omitempty"`
	Record     *AsRecord   `msgpack:"record,omitempty"`
	Found      bool        `msgpack:"found,omitempty"`
}
