package main

import (
	"testing"

	"github.com/cshape/inworld-api-examples/pkg/config"
)

func TestSettingsFlagSet(t *testing.T) {
	f := settingsFlag{}
	if err := f.Set("sample_rate_hertz=48000"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if err := f.Set("encoding=LINEAR16"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if f["sample_rate_hertz"] != "48000" || f["encoding"] != "LINEAR16" {
		t.Fatalf("unexpected map: %v", f)
	}
	if got := f.String(); got != "encoding=LINEAR16,sample_rate_hertz=48000" {
		t.Fatalf("unexpected String: %q", got)
	}
}

func TestSettingsFlagRejectsBadPair(t *testing.T) {
	f := settingsFlag{}
	if err := f.Set("no-equals-sign"); err == nil {
		t.Fatalf("expected error for missing =")
	}
	if err := f.Set("=orphan-value"); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestSettingsFlagDecodesIntoAudioSettings(t *testing.T) {
	audio := config.AudioSettings{
		Encoding:        "OGG_OPUS",
		SampleRateHertz: 24000,
		BitRate:         32000,
	}
	f := settingsFlag{}
	if err := f.Set("sample_rate_hertz=48000"); err != nil {
		t.Fatalf("set error: %v", err)
	}
	if err := config.DecodeSettings(f, &audio); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if audio.SampleRateHertz != 48000 {
		t.Fatalf("expected overridden sample rate, got %d", audio.SampleRateHertz)
	}
	if audio.Encoding != "OGG_OPUS" || audio.BitRate != 32000 {
		t.Fatalf("expected untouched fields, got %+v", audio)
	}
}
