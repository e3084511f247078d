package relay

import (
	"context"
	"log/slog"
)

// Surface is a consuming application surface listening for ready-for-import
// broadcasts. Broadcast delivery requires no ack from the surface's own
// consumer; a returned error is the hop failure the router reports.
type Surface interface {
	Deliver(ctx context.Context, env Envelope) error
	Close() error
}

// Router fans a broadcast out to all registered surfaces. One surface
// failing does not block the others; errors are logged and the first
// encountered is returned.
type Router struct {
	surfaces []Surface
	logger   *slog.Logger
}

// NewRouter creates a fan-out router delivering to all surfaces.
func NewRouter(logger *slog.Logger, surfaces ...Surface) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{surfaces: surfaces, logger: logger}
}

func (r *Router) Deliver(ctx context.Context, env Envelope) error {
	var firstErr error
	for _, s := range r.surfaces {
		if err := s.Deliver(ctx, env); err != nil {
			r.logger.Warn("relay: surface delivery failed", "type", env.Type, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.surfaces {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
