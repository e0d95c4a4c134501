package sequence

import (
	"context"
	"sync"
)

// Generator is an in-memory sequence.Generator.
type Generator struct {
	mu   sync.Mutex
	last map[string]int64
}

func NewGenerator() *Generator {
	return &Generator{last: make(map[string]int64)}
}

func (g *Generator) Next(ctx context.Context, name string) (int64, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[name]++
	return g.last[name], nil
}

func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = make(map[string]int64)
}
