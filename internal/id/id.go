// Package id generates prefixed, k-sortable ULIDs for domain objects.
//
// Prefixes keep logs readable (hand_*, sess_*, task_*) and the ULID body keeps
// identifiers sortable by creation time, which the hand store relies on for
// cheap time-range queries.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	HandPrefix    = "hand"
	SessionPrefix = "sess"
	TaskPrefix    = "task"
	RequestPrefix = "req"
)

// Generator produces ULIDs from a guarded entropy source.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source.
// Tests can pass a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a prefixed ULID string, e.g. "hand_01J...".
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewHandID generates an identifier for an imported hand.
func NewHandID() string { return Default().WithPrefix(HandPrefix) }

// NewSessionID generates an identifier for a saved dashboard session.
func NewSessionID() string { return Default().WithPrefix(SessionPrefix) }

// NewTaskID generates an identifier for an import task.
func NewTaskID() string { return Default().WithPrefix(TaskPrefix) }

// NewRequestID generates an identifier for an API request.
func NewRequestID() string { return Default().WithPrefix(RequestPrefix) }

// Timestamp extracts the creation time from a prefixed or bare ULID string.
func Timestamp(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
