// Package protocol defines the wire format of the Inworld TTS
// streaming API: JSON messages exchanged over the bidirectional
// websocket and the NDJSON records of the HTTP streaming endpoint.
package protocol

import "encoding/json"

// AudioConfig selects the encoding of the synthesized audio.
type AudioConfig struct {
	AudioEncoding   string `json:"audio_encoding"`
	SampleRateHertz int    `json:"sample_rate_hertz"`
	BitRate         int    `json:"bit_rate,omitempty"`
}

// DefaultAudioConfig matches the service defaults for low-latency
// streaming synthesis.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		AudioEncoding:   "OGG_OPUS",
		SampleRateHertz: 24000,
		BitRate:         32000,
	}
}

// CreateMessage opens a synthesis context on the websocket.
type CreateMessage struct {
	ContextID string        `json:"context_id"`
	Create    CreateContext `json:"create"`
}

type CreateContext struct {
	VoiceID     string      `json:"voice_id"`
	ModelID     string      `json:"model_id"`
	AudioConfig AudioConfig `json:"audio_config"`
}

// SendTextMessage submits one text fragment to an open context. The
// flush directive makes the server start synthesizing the fragment
// immediately instead of buffering it.
type SendTextMessage struct {
	ContextID string   `json:"context_id"`
	SendText  SendText `json:"send_text"`
}

type SendText struct {
	Text         string   `json:"text"`
	FlushContext struct{} `json:"flush_context"`
}

// CloseContextMessage tells the server no more text is coming; the
// server answers with a contextClosed envelope once all audio for the
// context has been delivered.
type CloseContextMessage struct {
	ContextID    string   `json:"context_id"`
	CloseContext struct{} `json:"close_context"`
}

// SynthesisRequest is the body of the HTTP streaming endpoint. The
// same shape serves warmup and timed requests, only the text differs.
type SynthesisRequest struct {
	Text        string      `json:"text"`
	VoiceID     string      `json:"voice_id"`
	ModelID     string      `json:"model_id"`
	AudioConfig AudioConfig `json:"audio_config"`
}

// ServerEnvelope is one inbound websocket message. Exactly one of
// Error, Result or Done carries meaning; anything else is unrelated
// protocol traffic.
type ServerEnvelope struct {
	Error  json.RawMessage `json:"error,omitempty"`
	Result *EnvelopeResult `json:"result,omitempty"`
	Done   bool            `json:"done,omitempty"`
}

type EnvelopeResult struct {
	ContextCreated *ContextEvent `json:"contextCreated,omitempty"`
	ContextClosed  *ContextEvent `json:"contextClosed,omitempty"`
	AudioChunk     *AudioChunk   `json:"audioChunk,omitempty"`
}

// Empty reports whether the result carries no recognized payload.
// Completion envelopes may pair the done flag with an empty result
// object, which counts the same as no result at all.
func (r *EnvelopeResult) Empty() bool {
	return r == nil || (r.ContextCreated == nil && r.ContextClosed == nil && r.AudioChunk == nil)
}

// ContextEvent acknowledges a context lifecycle change. The server may
// omit the id when only one context exists on the connection.
type ContextEvent struct {
	ContextID string `json:"contextId,omitempty"`
}

// AudioChunk carries one base64-encoded audio payload.
type AudioChunk struct {
	AudioContent string `json:"audioContent"`
}

// StreamRecord is one NDJSON line of the HTTP streaming response.
type StreamRecord struct {
	Result *StreamResult `json:"result"`
}

type StreamResult struct {
	AudioContent string `json:"audioContent"`
}
