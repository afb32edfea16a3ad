// Package identifier supplies injected id generation so stores never mint
// their own identifiers and tests can pin deterministic ids.
package identifier

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator produces collision-resistant unique identifiers.
type Generator interface {
	NewID() string
}

// UUID generates UUIDv4 identifiers for entities.
type UUID struct{}

func (UUID) NewID() string { return uuid.NewString() }

// ULID generates lexicographically sortable identifiers. Used for audit
// events so id order tracks creation order.
type ULID struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULID creates a ULID generator with monotonic entropy, so ids minted
// within the same millisecond still sort by call order.
func NewULID() *ULID {
	return &ULID{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULID) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// Sequential generates predictable ids for tests: prefix-1, prefix-2, ...
type Sequential struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequential creates a deterministic generator with the given prefix.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

func (g *Sequential) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
