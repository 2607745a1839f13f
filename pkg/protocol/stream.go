package protocol

import (
	"bytes"
	"io"

	"github.com/bytedance/sonic"
)

const streamReadSize = 4096

// StreamDecoder reads an NDJSON synthesis response incrementally and
// yields decoded audio payloads in arrival order. It is forward-only;
// create a fresh decoder for every response body.
//
// Bytes after the last newline are held in a carry-over buffer and
// prefixed to the next read, so records split across reads are
// reassembled. Malformed lines and records without audio content are
// skipped silently.
type StreamDecoder struct {
	r     io.Reader
	buf   []byte
	carry []byte
	err   error
}

func NewStreamDecoder(r io.Reader) *StreamDecoder {
	return &StreamDecoder{
		r:   r,
		buf: make([]byte, streamReadSize),
	}
}

// Next returns the next decoded audio payload. It returns io.EOF once
// the stream is exhausted; any other error is a transport failure.
func (d *StreamDecoder) Next() ([]byte, error) {
	for {
		if i := bytes.IndexByte(d.carry, '\n'); i >= 0 {
			line := d.carry[:i]
			d.carry = d.carry[i+1:]
			if audio, ok := decodeLine(line); ok {
				return audio, nil
			}
			continue
		}
		if d.err != nil {
			// Flush the trailing record, if the stream ended
			// without a final newline.
			if len(d.carry) > 0 {
				line := d.carry
				d.carry = nil
				if audio, ok := decodeLine(line); ok {
					return audio, nil
				}
			}
			return nil, d.err
		}
		n, err := d.r.Read(d.buf)
		if n > 0 {
			d.carry = append(d.carry, d.buf[:n]...)
		}
		if err != nil {
			d.err = err
		}
	}
}

func decodeLine(line []byte) ([]byte, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false
	}
	var rec StreamRecord
	if err := sonic.Unmarshal(line, &rec); err != nil {
		return nil, false
	}
	if rec.Result == nil || rec.Result.AudioContent == "" {
		return nil, false
	}
	audio, err := DecodeAudio(rec.Result.AudioContent)
	if err != nil {
		return nil, false
	}
	return audio, true
}
