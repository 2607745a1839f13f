// Package session implements the two synthesis transports and their
// latency measurement: a stateful bidirectional websocket session and
// a warmup-based HTTP streaming session. Each session owns a single
// network connection for the duration of one Synthesize call and
// never shares state with other sessions.
package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cshape/inworld-api-examples/pkg/latency"
	"github.com/cshape/inworld-api-examples/pkg/metrics"
	"github.com/cshape/inworld-api-examples/pkg/protocol"
)

// Chunk is one decoded audio payload. Offset is the arrival time
// relative to the synthesis epoch.
type Chunk struct {
	Data   []byte
	Offset time.Duration
}

// Sink consumes decoded audio chunks in arrival order. Delivery is
// forward-only and happens on the session's own goroutine; a nil sink
// means metrics-only operation.
type Sink func(Chunk)

// WriterSink appends chunk bytes to w in arrival order.
func WriterSink(w io.Writer) Sink {
	return func(c Chunk) {
		_, _ = w.Write(c.Data)
	}
}

// Config is shared by both transports. URL selects the endpoint of
// the chosen transport; ContextID only applies to the websocket path
// and WarmupText only to the HTTP path.
type Config struct {
	URL        string
	APIKey     string
	VoiceID    string
	ModelID    string
	ContextID  string
	WarmupText string
	Audio      protocol.AudioConfig
	Sink       Sink
	Logger     *slog.Logger
	Observer   metrics.Observer
	HTTPClient *http.Client
}

// Result is the successful outcome of one synthesis call.
type Result struct {
	Metrics latency.Metrics
}

// Session is a single-use synthesis transport. Synthesize blocks
// until the protocol confirms completion or the session fails; a
// failed session returns no metrics.
type Session interface {
	Name() string
	Synthesize(ctx context.Context, text string) (*Result, error)
}
