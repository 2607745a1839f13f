package protocol

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
)

func b64(payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func audioLine(payload string) string {
	return `{"result":{"audioContent":"` + b64(payload) + `"}}`
}

func drain(t *testing.T, d *StreamDecoder) ([][]byte, error) {
	t.Helper()
	var chunks [][]byte
	for {
		audio, err := d.Next()
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, audio)
	}
}

func TestStreamDecoderSkipsMalformedLine(t *testing.T) {
	body := audioLine(strings.Repeat("a", 1000)) + "\n" +
		"{not valid json\n" +
		audioLine(strings.Repeat("b", 2000)) + "\n"
	chunks, err := drain(t, NewStreamDecoder(strings.NewReader(body)))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	total := len(chunks[0]) + len(chunks[1])
	if total != 3000 {
		t.Fatalf("expected 3000 audio bytes, got %d", total)
	}
}

func TestStreamDecoderSkipsRecordsWithoutAudio(t *testing.T) {
	body := `{"result":{}}` + "\n" +
		`{"something":"else"}` + "\n" +
		audioLine("xyz") + "\n"
	chunks, err := drain(t, NewStreamDecoder(strings.NewReader(body)))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(chunks) != 1 || string(chunks[0]) != "xyz" {
		t.Fatalf("expected single xyz chunk, got %v", chunks)
	}
}

// shortReader feeds the body a few bytes at a time so records span
// multiple reads.
type shortReader struct {
	s string
	n int
}

func (r *shortReader) Read(p []byte) (int, error) {
	if len(r.s) == 0 {
		return 0, io.EOF
	}
	n := r.n
	if n > len(r.s) {
		n = len(r.s)
	}
	copy(p, r.s[:n])
	r.s = r.s[n:]
	return n, nil
}

func TestStreamDecoderCarryOverAcrossReads(t *testing.T) {
	body := audioLine("first-chunk") + "\n" + audioLine("second-chunk") + "\n"
	chunks, err := drain(t, NewStreamDecoder(&shortReader{s: body, n: 7}))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if string(chunks[0]) != "first-chunk" || string(chunks[1]) != "second-chunk" {
		t.Fatalf("unexpected chunks: %q %q", chunks[0], chunks[1])
	}
}

func TestStreamDecoderTrailingLineWithoutNewline(t *testing.T) {
	body := audioLine("head") + "\n" + audioLine("tail")
	chunks, err := drain(t, NewStreamDecoder(strings.NewReader(body)))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(chunks) != 2 || string(chunks[1]) != "tail" {
		t.Fatalf("expected trailing record decoded, got %v", chunks)
	}
}

type failingReader struct {
	s    string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.s), nil
	}
	return 0, errors.New("connection reset")
}

func TestStreamDecoderPropagatesTransportError(t *testing.T) {
	r := &failingReader{s: audioLine("only") + "\n"}
	d := NewStreamDecoder(r)
	if _, err := d.Next(); err != nil {
		t.Fatalf("expected first chunk, got %v", err)
	}
	_, err := d.Next()
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestStreamDecoderEmptyBody(t *testing.T) {
	_, err := NewStreamDecoder(strings.NewReader("")).Next()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF for empty body, got %v", err)
	}
}
