package render

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRenderer records render requests without producing images.
// This is intended for testing.
type MemoryRenderer struct {
	mu       sync.Mutex
	requests []Request
}

// NewMemoryRenderer creates an in-memory renderer.
func NewMemoryRenderer() *MemoryRenderer {
	return &MemoryRenderer{}
}

// Render records the request and returns a synthetic location.
func (r *MemoryRenderer) Render(_ context.Context, req Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)
	return fmt.Sprintf("memory://%s/%s/%d", req.Region, req.Label, len(r.requests)), nil
}

// Requests returns a snapshot of everything rendered so far.
func (r *MemoryRenderer) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Request(nil), r.requests...)
}
