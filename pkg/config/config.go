package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults match the behavior the tool always had: English, 16 kHz mono,
// 100 ms capture blocks, fillers stripped, live preview on.
const (
	DefaultLanguage        = "en-US"
	DefaultSampleRate      = 16000
	DefaultBlocksPerSecond = 10
	DefaultGain            = 1.0
)

// Config holds everything both entry points need to run a session.
type Config struct {
	Language        string
	SampleRate      int
	BlocksPerSecond int
	Gain            float64
	Device          string // input device index or name, empty for default
	CredentialsFile string
	RemoveFillers   bool
	ShowPreview     bool
	SaveWAV         string // write the captured session here, empty to skip
	LogFile         string
	LogLevel        string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Language:        DefaultLanguage,
		SampleRate:      DefaultSampleRate,
		BlocksPerSecond: DefaultBlocksPerSecond,
		Gain:            DefaultGain,
		RemoveFillers:   true,
		ShowPreview:     true,
	}
}

// Load builds a Config from defaults, an optional .env file and the
// process environment. Flag overrides are applied by the callers on top.
func Load(envPath string) (Config, error) {
	cfg := Default()

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	} else {
		// A .env next to the binary is optional.
		_ = godotenv.Load()
	}

	if v := os.Getenv("STT_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("STT_SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid STT_SAMPLE_RATE %q: %w", v, err)
		}
		cfg.SampleRate = n
	}
	if v := os.Getenv("STT_GAIN"); v != "" {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid STT_GAIN %q: %w", v, err)
		}
		cfg.Gain = g
	}
	if v := os.Getenv("STT_DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := os.Getenv("STT_REMOVE_FILLERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid STT_REMOVE_FILLERS %q: %w", v, err)
		}
		cfg.RemoveFillers = b
	}
	if v := os.Getenv("STT_SHOW_PREVIEW"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid STT_SHOW_PREVIEW %q: %w", v, err)
		}
		cfg.ShowPreview = b
	}
	if v := os.Getenv("STT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("STT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.CredentialsFile = v
	}

	return cfg, nil
}

// Validate checks the fields a session cannot run without.
func (c Config) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("language code is required")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.BlocksPerSecond <= 0 {
		return fmt.Errorf("blocks per second must be positive, got %d", c.BlocksPerSecond)
	}
	if c.Gain <= 0 || c.Gain > 64 {
		return fmt.Errorf("gain must be in (0, 64], got %v", c.Gain)
	}
	return nil
}

// FramesPerBuffer is the capture block size in samples.
func (c Config) FramesPerBuffer() int {
	return c.SampleRate / c.BlocksPerSecond
}
