// Package config loads the client configuration: defaults, an
// optional yaml file, and the API credential from the process
// environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/cshape/inworld-api-examples/pkg/errorsx"
	"github.com/cshape/inworld-api-examples/pkg/protocol"
)

const (
	DefaultWSEndpoint   = "wss://api.inworld.ai/tts/v1/voice:streamBidirectional"
	DefaultHTTPEndpoint = "https://api.inworld.ai/tts/v1/voice:stream"
	DefaultText         = "Life moves pretty fast. Look around once in a while, or you might miss it."
	DefaultVoiceID      = "Dennis"
	DefaultModelID      = "inworld-tts-1.5-mini"

	apiKeyEnv = "INWORLD_API_KEY"
)

type Config struct {
	APIKey       string        `mapstructure:"api_key"`
	Transport    string        `mapstructure:"transport"`
	Text         string        `mapstructure:"text"`
	VoiceID      string        `mapstructure:"voice_id"`
	ModelID      string        `mapstructure:"model_id"`
	WSEndpoint   string        `mapstructure:"ws_endpoint"`
	HTTPEndpoint string        `mapstructure:"http_endpoint"`
	WarmupText   string        `mapstructure:"warmup_text"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	MetricsFile  string        `mapstructure:"metrics_file"`
	OutputFile   string        `mapstructure:"output_file"`
	Audio        AudioSettings `mapstructure:"audio"`
}

type AudioSettings struct {
	Encoding        string `mapstructure:"encoding"`
	SampleRateHertz int    `mapstructure:"sample_rate_hertz"`
	BitRate         int    `mapstructure:"bit_rate"`
}

// Protocol converts the settings into the wire-level audio config.
func (a AudioSettings) Protocol() protocol.AudioConfig {
	return protocol.AudioConfig{
		AudioEncoding:   a.Encoding,
		SampleRateHertz: a.SampleRateHertz,
		BitRate:         a.BitRate,
	}
}

// Load builds the configuration from defaults, an optional yaml file
// and the environment. It does no validation; call Validate before
// any network activity.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("transport", "ws")
	v.SetDefault("text", DefaultText)
	v.SetDefault("voice_id", DefaultVoiceID)
	v.SetDefault("model_id", DefaultModelID)
	v.SetDefault("ws_endpoint", DefaultWSEndpoint)
	v.SetDefault("http_endpoint", DefaultHTTPEndpoint)
	v.SetDefault("warmup_text", "hi")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("audio.encoding", "OGG_OPUS")
	v.SetDefault("audio.sample_rate_hertz", 24000)
	v.SetDefault("audio.bit_rate", 32000)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(apiKeyEnv)
	}
	return cfg, nil
}

// Validate reports configuration errors that must stop the run before
// any I/O happens.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errorsx.Wrap(
			fmt.Errorf("%s environment variable is not set", apiKeyEnv),
			errorsx.ReasonConfigMissingKey,
		)
	}
	switch c.Transport {
	case "ws", "http":
	default:
		return fmt.Errorf("transport must be ws or http, got %q", c.Transport)
	}
	return nil
}
