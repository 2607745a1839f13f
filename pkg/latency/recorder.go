// Package latency measures time-to-first-audio and total synthesis
// duration for a single session.
package latency

import "time"

// Metrics is the immutable outcome of one synthesis session.
// TTFB is only meaningful when HasTTFB is true; it stays false when the
// session produced no audio before completion.
type Metrics struct {
	TTFB       time.Duration
	HasTTFB    bool
	TotalTime  time.Duration
	AudioBytes int64
}

// Recorder captures the synthesis epoch and the first-audio instant.
// All instants come from the monotonic clock; nothing observed before
// Start contributes to the derived metrics.
type Recorder struct {
	now        func() time.Time
	epoch      time.Time
	firstAudio time.Time
	bytes      int64
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Start establishes the measurement epoch. Warmup and setup work must
// happen before this call so it never enters the timed window.
func (r *Recorder) Start() {
	r.epoch = r.now()
}

// ObserveChunk accounts for one decoded audio chunk of n bytes. The
// first observation pins the TTFB instant; later ones only accumulate.
func (r *Recorder) ObserveChunk(n int) {
	if r.firstAudio.IsZero() {
		r.firstAudio = r.now()
	}
	r.bytes += int64(n)
}

// AudioBytes returns the bytes accumulated so far.
func (r *Recorder) AudioBytes() int64 {
	return r.bytes
}

// Elapsed returns the time since Start.
func (r *Recorder) Elapsed() time.Duration {
	return r.now().Sub(r.epoch)
}

// Finish derives the final metrics, with completion taken as now.
func (r *Recorder) Finish() Metrics {
	m := Metrics{
		TotalTime:  r.now().Sub(r.epoch),
		AudioBytes: r.bytes,
	}
	if !r.firstAudio.IsZero() {
		m.TTFB = r.firstAudio.Sub(r.epoch)
		m.HasTTFB = true
	}
	return m
}
