package database

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Pinger is satisfied by *pgxpool.Pool and by a wrapper around *redis.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Health pings every dependency concurrently and reports per-name status.
type Health struct {
	deps    map[string]Pinger
	timeout time.Duration
}

func NewHealth(timeout time.Duration) *Health {
	return &Health{deps: make(map[string]Pinger), timeout: timeout}
}

// Register adds a named dependency.
func (h *Health) Register(name string, p Pinger) *Health {
	h.deps[name] = p
	return h
}

// Check returns "ok" or the error text per dependency, and whether all are healthy.
func (h *Health) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	results := make([]string, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			if err := h.deps[name].Ping(ctx); err != nil {
				results[i] = err.Error()
				return nil
			}
			results[i] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	status := make(map[string]string, len(names))
	healthy := true
	for i, name := range names {
		status[name] = results[i]
		if results[i] != "ok" {
			healthy = false
		}
	}
	return status, healthy
}
