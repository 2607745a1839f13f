package latency

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) now() time.Time          { return c.t }

func newFakeRecorder() (*Recorder, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	r := NewRecorder()
	r.now = clock.now
	return r, clock
}

func TestRecorderScenario(t *testing.T) {
	// Context ready at t=0, first chunk at 80ms, closed at 420ms.
	r, clock := newFakeRecorder()
	r.Start()

	clock.advance(80 * time.Millisecond)
	r.ObserveChunk(1024)
	clock.advance(340 * time.Millisecond)
	r.ObserveChunk(2048)
	m := r.Finish()

	if !m.HasTTFB || m.TTFB != 80*time.Millisecond {
		t.Fatalf("expected ttfb 80ms, got %v (has=%v)", m.TTFB, m.HasTTFB)
	}
	if m.TotalTime != 420*time.Millisecond {
		t.Fatalf("expected total 420ms, got %v", m.TotalTime)
	}
	if m.AudioBytes != 3072 {
		t.Fatalf("expected 3072 bytes, got %d", m.AudioBytes)
	}
	if m.TTFB > m.TotalTime {
		t.Fatalf("ttfb %v exceeds total %v", m.TTFB, m.TotalTime)
	}
}

func TestRecorderNoAudio(t *testing.T) {
	r, clock := newFakeRecorder()
	r.Start()
	clock.advance(50 * time.Millisecond)
	m := r.Finish()

	if m.HasTTFB {
		t.Fatalf("expected no ttfb without audio")
	}
	if m.TotalTime != 50*time.Millisecond {
		t.Fatalf("expected total 50ms, got %v", m.TotalTime)
	}
	if m.AudioBytes != 0 {
		t.Fatalf("expected zero bytes, got %d", m.AudioBytes)
	}
}

func TestRecorderFirstChunkPinsTTFB(t *testing.T) {
	r, clock := newFakeRecorder()
	r.Start()
	clock.advance(10 * time.Millisecond)
	r.ObserveChunk(100)
	clock.advance(10 * time.Millisecond)
	r.ObserveChunk(100)
	m := r.Finish()

	if m.TTFB != 10*time.Millisecond {
		t.Fatalf("expected ttfb pinned at first chunk, got %v", m.TTFB)
	}
	if m.AudioBytes != 200 {
		t.Fatalf("expected 200 bytes, got %d", m.AudioBytes)
	}
}
