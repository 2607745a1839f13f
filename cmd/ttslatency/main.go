// Command ttslatency measures time-to-first-audio-byte of the Inworld
// TTS streaming API over a bidirectional websocket or a warmed-up
// HTTP streaming connection.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/dimiro1/banner"

	"github.com/cshape/inworld-api-examples/pkg/config"
	"github.com/cshape/inworld-api-examples/pkg/errorsx"
	"github.com/cshape/inworld-api-examples/pkg/logging"
	"github.com/cshape/inworld-api-examples/pkg/metrics"
	"github.com/cshape/inworld-api-examples/pkg/session"
)

const version = "dev"

func printBanner() {
	tpl := "{{ .Title \"TTS LATENCY\" \"\" 0 }}\nVersion: " + version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

// settingsFlag collects repeatable key=value overrides into a
// free-form settings map.
type settingsFlag map[string]any

func (f settingsFlag) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (f settingsFlag) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	f[key] = strings.TrimSpace(val)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "", "optional yaml config file")
		transport   = flag.String("transport", "", "transport to measure: ws or http")
		text        = flag.String("text", "", "text to synthesize")
		voiceID     = flag.String("voice", "", "voice id")
		modelID     = flag.String("model", "", "model id")
		outPath     = flag.String("out", "", "write synthesized audio to this file")
		metricsPath = flag.String("metrics", "", "append metrics events to this JSONL file")
		noBanner    = flag.Bool("no-banner", false, "suppress the startup banner")
	)
	audioOverrides := settingsFlag{}
	flag.Var(audioOverrides, "audio",
		"audio config override as key=value, repeatable (e.g. -audio sample_rate_hertz=48000)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	// Flags win over the config file and defaults.
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *text != "" {
		cfg.Text = *text
	}
	if *voiceID != "" {
		cfg.VoiceID = *voiceID
	}
	if *modelID != "" {
		cfg.ModelID = *modelID
	}
	if *outPath != "" {
		cfg.OutputFile = *outPath
	}
	if *metricsPath != "" {
		cfg.MetricsFile = *metricsPath
	}
	if err := config.DecodeSettings(audioOverrides, &cfg.Audio); err != nil {
		fmt.Fprintf(os.Stderr, "audio overrides: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		if errorsx.HasReason(err, errorsx.ReasonConfigMissingKey) {
			fmt.Fprintln(os.Stderr, "Error: INWORLD_API_KEY environment variable is not set.")
			fmt.Fprintln(os.Stderr, "Please set it with: export INWORLD_API_KEY=your_api_key_here")
		} else {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
		}
		return 1
	}

	log := logging.NewLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if !*noBanner {
		printBanner()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var obs metrics.Observer
	if cfg.MetricsFile != "" {
		f, err := os.OpenFile(cfg.MetricsFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "metrics file: %v\n", err)
			return 1
		}
		defer f.Close()
		obs = metrics.NewJSONLObserver(f)
	}

	var sink session.Sink
	if cfg.OutputFile != "" {
		out, err := os.Create(cfg.OutputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "output file: %v\n", err)
			return 1
		}
		defer out.Close()
		sink = session.WriterSink(out)
	}

	sessCfg := session.Config{
		APIKey:     cfg.APIKey,
		VoiceID:    cfg.VoiceID,
		ModelID:    cfg.ModelID,
		WarmupText: cfg.WarmupText,
		Audio:      cfg.Audio.Protocol(),
		Sink:       sink,
		Logger:     log,
		Observer:   obs,
	}

	var sess session.Session
	switch cfg.Transport {
	case "http":
		sessCfg.URL = cfg.HTTPEndpoint
		sess = session.NewHTTPStreamSession(sessCfg)
	default:
		sessCfg.URL = cfg.WSEndpoint
		sess = session.NewWebSocketSession(sessCfg)
	}

	fmt.Printf("   Text: %q\n", cfg.Text)
	fmt.Printf("  Voice: %s\n", cfg.VoiceID)
	fmt.Printf("  Model: %s\n\n", cfg.ModelID)

	res, err := sess.Synthesize(ctx, cfg.Text)
	if err != nil {
		log.Error("synthesis failed",
			slog.String("transport", sess.Name()),
			slog.String("reason", string(errorsx.Reason(err))),
			slog.String("error", err.Error()))
		fmt.Println("Synthesis failed.")
		return 1
	}

	m := res.Metrics
	if m.HasTTFB {
		fmt.Printf("TTFB:         %.1f ms\n", float64(m.TTFB.Microseconds())/1000.0)
	} else {
		fmt.Println("TTFB:         n/a (no audio received)")
	}
	fmt.Printf("Total time:   %.1f ms\n", float64(m.TotalTime.Microseconds())/1000.0)
	fmt.Printf("Audio bytes:  %d\n", m.AudioBytes)
	return 0
}
