package protocol

import (
	"encoding/base64"
	"fmt"

	"github.com/bytedance/sonic"
)

// Marshal JSON-encodes an outbound message.
func Marshal(v any) ([]byte, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %T: %w", v, err)
	}
	return b, nil
}

// DecodeEnvelope parses one inbound websocket frame. A non-nil error
// means the frame is not valid JSON; callers are expected to skip such
// frames rather than fail the session.
func DecodeEnvelope(data []byte) (*ServerEnvelope, error) {
	var env ServerEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode envelope: %w", err)
	}
	return &env, nil
}

// DecodeAudio decodes a base64 audio payload into raw bytes.
func DecodeAudio(content string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("protocol: decode audio: %w", err)
	}
	return raw, nil
}
