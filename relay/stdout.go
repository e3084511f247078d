package relay

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
)

// Stdout writes envelopes as JSON lines to an io.Writer (default
// os.Stdout). Useful for piping the bridge into ad-hoc consumers.
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout surface. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) Deliver(_ context.Context, env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(env)
}

func (s *Stdout) Close() error { return nil }
