package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs returns predictable run IDs for telemetry tests.
//
// The first ID is "<prefix>-0001", then "<prefix>-0002", and so on. With
// an empty prefix, "test-run" is used. The same sequence of calls always
// produces the same IDs, which keeps trace output byte-identical.
//
// Thread-safety: SequentialRunIDs is safe for concurrent use.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs creates a generator with the given prefix.
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "test-run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next run ID.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
