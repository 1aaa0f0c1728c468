// Package admission rate-limits expensive queries per client address. Each
// address gets two independent token buckets: one for bulk/listing work,
// charged one token per requested record, and a much smaller one for
// single-record detail lookups. Refusal is final — the session closes the
// connection and the client retries by reconnecting.
package admission

import (
	"math"
	"net"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/asmap/asdird/internal/asdir/common/clock"
	"github.com/asmap/asdird/internal/asdir/common/log"
)

// Limits configures the two quotas. Rates are tokens per second.
type Limits struct {
	ListingRate  float64
	ListingBurst int
	DetailRate   float64
	DetailBurst  int
	// ClientCacheSize bounds how many client addresses are tracked at
	// once; least-recently-seen clients are evicted and start fresh.
	ClientCacheSize int
}

// DefaultLimits is the calibration the service ships with: listings at
// 100 tokens/s with a burst of 500, details at 1/s with a burst of 2.
var DefaultLimits = Limits{
	ListingRate:     100,
	ListingBurst:    500,
	DetailRate:      1,
	DetailBurst:     2,
	ClientCacheSize: 4096,
}

type buckets struct {
	listing *rate.Limiter
	detail  *rate.Limiter
}

// Controller is the one shared instance of rate-limiter state in the
// process. It is handed to every connection task; the LRU table and the
// limiters synchronize internally, so concurrent check-and-decrement from
// many tasks is safe and a bucket is looked up at most once per request.
type Controller struct {
	limits  Limits
	clock   clock.Clock
	logger  log.Logger
	clients *lru.Cache[string, *buckets]

	// mu serializes only the create-on-miss path.
	mu sync.Mutex
}

func New(limits Limits, clk clock.Clock, logger log.Logger) (*Controller, error) {
	clients, err := lru.New[string, *buckets](limits.ClientCacheSize)
	if err != nil {
		return nil, err
	}
	return &Controller{
		limits:  limits,
		clock:   clk,
		logger:  logger,
		clients: clients,
	}, nil
}

// ClientKey derives the limiter key from a connection's remote address:
// the bare IP, so reconnecting from a new source port keeps the same
// buckets.
func ClientKey(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func (c *Controller) bucketsFor(key string) *buckets {
	if b, ok := c.clients.Get(key); ok {
		return b
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.clients.Get(key); ok {
		return b
	}
	b := &buckets{
		listing: rate.NewLimiter(rate.Limit(c.limits.ListingRate), c.limits.ListingBurst),
		detail:  rate.NewLimiter(rate.Limit(c.limits.DetailRate), c.limits.DetailBurst),
	}
	c.clients.Add(key, b)
	return b
}

// AllowListing charges the client's listing quota n tokens, one per record
// the request will return. Returns false when the bucket cannot cover n;
// nothing is consumed in that case. Requests larger than the burst
// capacity can never be admitted.
func (c *Controller) AllowListing(key string, n uint64) bool {
	if n > math.MaxInt32 {
		return false
	}
	ok := c.bucketsFor(key).listing.AllowN(c.clock.Now(), int(n))
	if !ok {
		c.logger.Warn(map[string]any{
			"client": key,
			"tokens": n,
			"quota":  "listing",
		}, "request refused by admission controller")
	}
	return ok
}

// AllowDetail charges the client's detail quota a single token.
func (c *Controller) AllowDetail(key string) bool {
	ok := c.bucketsFor(key).detail.AllowN(c.clock.Now(), 1)
	if !ok {
		c.logger.Warn(map[string]any{
			"client": key,
			"quota":  "detail",
		}, "request refused by admission controller")
	}
	return ok
}
