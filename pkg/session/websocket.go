package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cshape/inworld-api-examples/pkg/errorsx"
	"github.com/cshape/inworld-api-examples/pkg/latency"
	"github.com/cshape/inworld-api-examples/pkg/logging"
	"github.com/cshape/inworld-api-examples/pkg/metrics"
	"github.com/cshape/inworld-api-examples/pkg/protocol"
	"github.com/cshape/inworld-api-examples/pkg/textseg"
)

// wsState tracks where a websocket session is in its lifecycle.
type wsState int

const (
	stateConnecting wsState = iota
	stateAwaitingContextReady
	stateStreaming
	stateClosed
)

func (s wsState) String() string {
	switch s {
	case stateConnecting:
		return "connecting"
	case stateAwaitingContextReady:
		return "awaiting_context_ready"
	case stateStreaming:
		return "streaming"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var wsTransitions = map[wsState][]wsState{
	stateConnecting:           {stateAwaitingContextReady},
	stateAwaitingContextReady: {stateStreaming},
	stateStreaming:            {stateClosed},
}

// WebSocketSession synthesizes over the bidirectional websocket
// endpoint. The connection and context are established before the
// latency clock starts, so the timed window covers text submission to
// final audio only.
type WebSocketSession struct {
	cfg Config
	log *slog.Logger
	obs metrics.Observer
}

func NewWebSocketSession(cfg Config) *WebSocketSession {
	if cfg.ContextID == "" {
		cfg.ContextID = "ctx-" + uuid.NewString()
	}
	if cfg.Audio == (protocol.AudioConfig{}) {
		cfg.Audio = protocol.DefaultAudioConfig()
	}
	return &WebSocketSession{
		cfg: cfg,
		log: logging.NewComponentLogger(cfg.Logger, "ws_session"),
		obs: cfg.Observer,
	}
}

func (s *WebSocketSession) Name() string { return "inworld_ws" }

// wsRun holds the per-call state of one synthesis. Every call gets a
// fresh run, so concurrent sessions never share counters or flags.
type wsRun struct {
	conn     *websocket.Conn
	rec      *latency.Recorder
	state    wsState
	sawAudio bool
	done     atomic.Bool
	log      *slog.Logger
}

func (r *wsRun) transition(to wsState) error {
	for _, allowed := range wsTransitions[r.state] {
		if allowed == to {
			r.log.Debug("session state change",
				slog.String("from", r.state.String()),
				slog.String("to", to.String()))
			r.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid session transition %s -> %s", r.state, to)
}

// release closes the connection exactly once, whichever exit path
// gets here first. The done flag is the terminal marker; state is
// only touched by the session goroutine.
func (r *wsRun) release() {
	if !r.done.CompareAndSwap(false, true) {
		return
	}
	// WriteControl is safe concurrently with other writes, so the
	// cancellation watcher may call release while a send is in flight.
	_ = r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	_ = r.conn.Close()
}

func (r *wsRun) send(msg any) error {
	b, err := protocol.Marshal(msg)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonWSSend)
	}
	if err := r.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonWSSend)
	}
	return nil
}

func (s *WebSocketSession) Synthesize(ctx context.Context, text string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	dialer := websocket.Dialer{Proxy: http.ProxyFromEnvironment}
	header := http.Header{"Authorization": []string{"Basic " + s.cfg.APIKey}}
	conn, resp, err := dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		if resp != nil {
			s.log.Error("websocket dial failed",
				slog.String("status", resp.Status),
				slog.String("error", err.Error()))
		} else {
			s.log.Error("websocket dial failed",
				slog.String("error", err.Error()))
		}
		return nil, errorsx.Wrap(err, errorsx.ReasonWSDial)
	}
	s.log.Info("websocket connected",
		slog.String("context_id", s.cfg.ContextID))

	run := &wsRun{
		conn:  conn,
		rec:   latency.NewRecorder(),
		state: stateConnecting,
		log:   s.log,
	}
	defer run.release()

	// Abandonment support: closing the connection is the only way to
	// interrupt a blocked read.
	watch := make(chan struct{})
	defer close(watch)
	go func() {
		select {
		case <-ctx.Done():
			run.release()
		case <-watch:
		}
	}()

	create := protocol.CreateMessage{
		ContextID: s.cfg.ContextID,
		Create: protocol.CreateContext{
			VoiceID:     s.cfg.VoiceID,
			ModelID:     s.cfg.ModelID,
			AudioConfig: s.cfg.Audio,
		},
	}
	if err := run.send(create); err != nil {
		return nil, err
	}
	if err := run.transition(stateAwaitingContextReady); err != nil {
		return nil, err
	}

	if err := s.awaitContextReady(ctx, run); err != nil {
		return nil, err
	}

	// The context is ready; connection and setup cost stay outside
	// the timed window from here on.
	run.rec.Start()
	metrics.Emit(s.obs, "context_ready", s.tags(), nil)

	fragments := 0
	for sentence := range textseg.Sentences(text) {
		msg := protocol.SendTextMessage{
			ContextID: s.cfg.ContextID,
			SendText:  protocol.SendText{Text: sentence},
		}
		if err := run.send(msg); err != nil {
			return nil, err
		}
		fragments++
	}
	if err := run.send(protocol.CloseContextMessage{ContextID: s.cfg.ContextID}); err != nil {
		return nil, err
	}
	if err := run.transition(stateStreaming); err != nil {
		return nil, err
	}
	s.log.Debug("fragments submitted", slog.Int("count", fragments))
	metrics.Emit(s.obs, "text_submitted", s.tags(), map[string]any{
		"fragments": fragments,
	})

	if err := s.streamAudio(ctx, run); err != nil {
		metrics.Emit(s.obs, "session_failed", s.tags(), map[string]any{
			"reason": string(errorsx.Reason(err)),
		})
		return nil, err
	}

	m := run.rec.Finish()
	if err := run.transition(stateClosed); err != nil {
		return nil, err
	}
	metrics.Emit(s.obs, "session_done", s.tags(), map[string]any{
		"audio_bytes":   m.AudioBytes,
		"ttfb_ms":       m.TTFB.Milliseconds(),
		"total_time_ms": m.TotalTime.Milliseconds(),
	})
	return &Result{Metrics: m}, nil
}

// awaitContextReady consumes inbound traffic until the server
// acknowledges the context. Unrelated messages are ignored; only an
// explicit error envelope or a dropped connection fails the session.
func (s *WebSocketSession) awaitContextReady(ctx context.Context, run *wsRun) error {
	for {
		_, data, err := run.conn.ReadMessage()
		if err != nil {
			return s.aborted(ctx, err, "awaiting context ack")
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			s.log.Warn("skipping malformed frame", slog.String("error", err.Error()))
			continue
		}
		if len(env.Error) > 0 {
			return s.serverError(env.Error)
		}
		if env.Result != nil && env.Result.ContextCreated != nil {
			if id := env.Result.ContextCreated.ContextID; id == "" || id == s.cfg.ContextID {
				return nil
			}
		}
	}
}

// streamAudio drives the Streaming state until the server confirms
// completion via contextClosed or a bare done envelope.
func (s *WebSocketSession) streamAudio(ctx context.Context, run *wsRun) error {
	for {
		_, data, err := run.conn.ReadMessage()
		if err != nil {
			return s.aborted(ctx, err, "streaming audio")
		}
		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			s.log.Warn("skipping malformed frame", slog.String("error", err.Error()))
			continue
		}
		if len(env.Error) > 0 {
			return s.serverError(env.Error)
		}
		if env.Result.Empty() {
			if env.Done {
				return nil
			}
			continue
		}
		if env.Result.ContextClosed != nil {
			return nil
		}
		chunk := env.Result.AudioChunk
		if chunk == nil || chunk.AudioContent == "" {
			continue
		}
		audio, err := protocol.DecodeAudio(chunk.AudioContent)
		if err != nil {
			s.log.Warn("skipping undecodable audio chunk", slog.String("error", err.Error()))
			continue
		}
		run.rec.ObserveChunk(len(audio))
		if !run.sawAudio {
			run.sawAudio = true
			metrics.Emit(s.obs, "first_audio", s.tags(), nil)
		}
		if s.cfg.Sink != nil {
			s.cfg.Sink(Chunk{Data: audio, Offset: run.rec.Elapsed()})
		}
		s.log.Debug("audio chunk received", slog.Int("size_bytes", len(audio)))
	}
}

func (s *WebSocketSession) aborted(ctx context.Context, err error, during string) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	s.log.Error("connection closed before completion",
		slog.String("during", during),
		slog.String("error", err.Error()))
	return errorsx.Wrap(fmt.Errorf("connection closed %s: %w", during, err), errorsx.ReasonSessionAborted)
}

func (s *WebSocketSession) serverError(raw []byte) error {
	s.log.Error("server error envelope", slog.String("error", string(raw)))
	return errorsx.Wrap(fmt.Errorf("server error: %s", raw), errorsx.ReasonProtocol)
}

func (s *WebSocketSession) tags() map[string]string {
	return map[string]string{
		"transport":  s.Name(),
		"context_id": s.cfg.ContextID,
	}
}
