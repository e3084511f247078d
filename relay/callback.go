package relay

import "context"

// DeliverFunc is called for each broadcast envelope (in-process, zero
// serialisation).
type DeliverFunc func(ctx context.Context, env Envelope) error

// Callback delivers envelopes via a Go function call, the path used when
// the bridge and the consuming application share a binary.
type Callback struct {
	fn DeliverFunc
}

// NewCallback creates a Callback surface. fn may be nil.
func NewCallback(fn DeliverFunc) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Deliver(ctx context.Context, env Envelope) error {
	if c.fn != nil {
		return c.fn(ctx, env)
	}
	return nil
}

func (c *Callback) Close() error { return nil }
