package memory

import (
	"fmt"
	"sync/atomic"
)

// SequentialIDGenerator produces ordered, predictable ids. Useful in tests
// that assert on lock order or need stable fixtures.
type SequentialIDGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewSequentialIDGenerator creates a generator producing prefix-000001, ...
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate implements usecase.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	return fmt.Sprintf("%s-%06d", g.prefix, g.next.Add(1))
}
