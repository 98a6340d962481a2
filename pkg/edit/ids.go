package edit

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces fresh identifiers. Prefix hints the kind of entity ("m" for modules,
// "c" for connections, "layer", "box", "a" for adaptors).
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDs generates random identifiers.
type UUIDs struct{}

// NewID returns prefix-<uuid>.
func (UUIDs) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// Sequence generates deterministic identifiers (m1, m2, c1, ...), one counter per prefix.
// The zero value is ready to use.
type Sequence struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewID returns the prefix followed by the next value of its counter.
func (s *Sequence) NewID(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters == nil {
		s.counters = make(map[string]int)
	}
	s.counters[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.counters[prefix])
}

// Fresh wraps a generator and skips the identifiers Taken reports as used. It keeps sequential
// ids unique when a project is reopened.
type Fresh struct {
	Base  IDGenerator
	Taken func(id string) bool
}

// NewID draws from Base until an unused id comes up.
func (f Fresh) NewID(prefix string) string {
	for {
		id := f.Base.NewID(prefix)
		if f.Taken == nil || !f.Taken(id) {
			return id
		}
	}
}
