package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cshape/inworld-api-examples/pkg/errorsx"
	"github.com/cshape/inworld-api-examples/pkg/latency"
	"github.com/cshape/inworld-api-examples/pkg/logging"
	"github.com/cshape/inworld-api-examples/pkg/metrics"
	"github.com/cshape/inworld-api-examples/pkg/protocol"
)

// defaultWarmupText keeps the warmup exchange as small as possible.
const defaultWarmupText = "hi"

const maxDiagnosticBytes = 4096

// HTTPStreamSession synthesizes over the HTTP streaming endpoint. A
// throwaway warmup request absorbs TCP and TLS setup on the pooled
// connection before the clock starts, so the timed exchange measures
// synthesis latency only.
type HTTPStreamSession struct {
	cfg    Config
	client *http.Client
	log    *slog.Logger
	obs    metrics.Observer
}

func NewHTTPStreamSession(cfg Config) *HTTPStreamSession {
	if cfg.WarmupText == "" {
		cfg.WarmupText = defaultWarmupText
	}
	if cfg.Audio == (protocol.AudioConfig{}) {
		cfg.Audio = protocol.DefaultAudioConfig()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPStreamSession{
		cfg:    cfg,
		client: client,
		log:    logging.NewComponentLogger(cfg.Logger, "http_session"),
		obs:    cfg.Observer,
	}
}

func (s *HTTPStreamSession) Name() string { return "inworld_http" }

func (s *HTTPStreamSession) Synthesize(ctx context.Context, text string) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// Warmup exchange: drain the whole body so the connection goes
	// back to the pool for the timed request. None of it counts
	// toward the metrics.
	warmup, err := s.post(ctx, s.cfg.WarmupText)
	if err != nil {
		return nil, err
	}
	_, err = io.Copy(io.Discard, warmup.Body)
	warmup.Body.Close()
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("drain warmup response: %w", err), errorsx.ReasonHTTPRequest)
	}
	s.log.Debug("warmup exchange complete")
	metrics.Emit(s.obs, "warmup_done", s.tags(), nil)

	rec := latency.NewRecorder()
	rec.Start()

	resp, err := s.post(ctx, text)
	if err != nil {
		metrics.Emit(s.obs, "session_failed", s.tags(), map[string]any{
			"reason": string(errorsx.Reason(err)),
		})
		return nil, err
	}
	defer resp.Body.Close()

	dec := protocol.NewStreamDecoder(resp.Body)
	sawAudio := false
	for {
		audio, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Error("stream read failed", slog.String("error", err.Error()))
			metrics.Emit(s.obs, "session_failed", s.tags(), map[string]any{
				"reason": string(errorsx.ReasonHTTPRequest),
			})
			return nil, errorsx.Wrap(err, errorsx.ReasonHTTPRequest)
		}
		rec.ObserveChunk(len(audio))
		if !sawAudio {
			sawAudio = true
			metrics.Emit(s.obs, "first_audio", s.tags(), nil)
		}
		if s.cfg.Sink != nil {
			s.cfg.Sink(Chunk{Data: audio, Offset: rec.Elapsed()})
		}
		s.log.Debug("audio chunk received", slog.Int("size_bytes", len(audio)))
	}

	m := rec.Finish()
	metrics.Emit(s.obs, "session_done", s.tags(), map[string]any{
		"audio_bytes":   m.AudioBytes,
		"ttfb_ms":       m.TTFB.Milliseconds(),
		"total_time_ms": m.TotalTime.Milliseconds(),
	})
	return &Result{Metrics: m}, nil
}

// post issues one synthesis request. A non-2xx status is a hard
// failure; the body is captured as diagnostic text.
func (s *HTTPStreamSession) post(ctx context.Context, text string) (*http.Response, error) {
	body, err := protocol.Marshal(protocol.SynthesisRequest{
		Text:        text,
		VoiceID:     s.cfg.VoiceID,
		ModelID:     s.cfg.ModelID,
		AudioConfig: s.cfg.Audio,
	})
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonHTTPRequest)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonHTTPRequest)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("request failed", slog.String("error", err.Error()))
		return nil, errorsx.Wrap(err, errorsx.ReasonHTTPRequest)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		diag, _ := io.ReadAll(io.LimitReader(resp.Body, maxDiagnosticBytes))
		resp.Body.Close()
		s.log.Error("synthesis request rejected",
			slog.String("status", resp.Status),
			slog.String("body", strings.TrimSpace(string(diag))))
		err := fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(diag)))
		return nil, errorsx.Wrap(err, errorsx.ReasonHTTPStatus)
	}
	return resp, nil
}

func (s *HTTPStreamSession) tags() map[string]string {
	return map[string]string{"transport": s.Name()}
}
