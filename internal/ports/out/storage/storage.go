package storage

import "context"

// Resetter wipes all persisted application data. Used by the dev-only reset-db endpoint.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Pinger reports storage reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
