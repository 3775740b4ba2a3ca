package session

import (
	"sync"

	"github.com/abdul-hamid-achik/hitdraft/packages/http"
)

// Cell holds the live response descriptor together with the generation of
// the dispatch that produced it.
type Cell struct {
	mu      sync.Mutex
	gen     uint64
	applied uint64
	result  *http.Descriptor
}

// Begin starts a new generation and returns it.
func (c *Cell) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return c.gen
}

// Apply stores d if gen is still the latest generation. It reports whether
// d was stored.
func (c *Cell) Apply(gen uint64, d http.Descriptor) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.applied = gen
	c.result = &d
	return true
}

// Current returns the live descriptor, if any.
func (c *Cell) Current() (http.Descriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return http.Descriptor{}, false
	}
	return copyDescriptor(*c.result), true
}

// Pending reports whether the latest dispatch has not produced a result yet.
func (c *Cell) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applied != c.gen
}

// Generation returns the latest generation handed out by Begin.
func (c *Cell) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Clear drops the live descriptor. Dispatches still in flight are treated
// as stale.
func (c *Cell) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.applied = c.gen
	c.result = nil
}

func copyDescriptor(d http.Descriptor) http.Descriptor {
	if d.Headers != nil {
		headers := make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			headers[k] = v
		}
		d.Headers = headers
	}
	return d
}
