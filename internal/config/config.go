// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"pulse/pkg/bitint"
)

// Boundaries and defaults for the analysis engine.
const (
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 1024        // Power of 2, ~23ms at 44.1kHz
	DefaultInputChannels   = 1           // Mono analysis channel
	DefaultLowLatency      = false       // Standard latency mode
	DefaultEmitter         = EmitterLog
	DefaultWebSocketAddr   = "127.0.0.1:8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultRecordingDir    = "./recordings"
	DefaultMediaCacheDir   = "./media-cache"

	MinDeviceID     = -1     // -1 selects the system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
)

// Known haptic emitter kinds.
const (
	EmitterLog       = "log"
	EmitterWebSocket = "websocket"
	EmitterUDP       = "udp"
)

// Config is the main application configuration, loaded from YAML with
// environment overrides. The haptic tuning constants (loudness gate,
// debounce interval, band edges) are deliberately not configurable; they
// live as literals in the haptics package.
type Config struct {
	Debug    bool   `yaml:"debug"`     // Verbose logging and debug features
	LogLevel string `yaml:"log_level"` // "debug", "info", "warn", "error"

	Audio     AudioConfig     `yaml:"audio"`     // Input and buffer settings
	Haptics   HapticsConfig   `yaml:"haptics"`   // Emission capability settings
	Recording RecordingConfig `yaml:"recording"` // Analysis-channel WAV tap
	Media     MediaConfig     `yaml:"media"`     // Remote media cache

	// Runtime mode, set by the CLI rather than the config file.
	Command    string `yaml:"-"` // One-off command ("list")
	PlayTarget string `yaml:"-"` // File path or URL for the play command
	Live       bool   `yaml:"-"` // Analyze the live input device
}

// AudioConfig holds input device and buffer settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default)
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per analysis buffer (power of 2)
	InputChannels   int     `yaml:"input_channels"`    // Channels captured from the device
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device
}

// HapticsConfig selects and configures the emission capability.
type HapticsConfig struct {
	Emitter       string `yaml:"emitter"`        // "log", "websocket" or "udp"
	WebSocketAddr string `yaml:"websocket_addr"` // Listen address for the websocket emitter
	UDPTarget     string `yaml:"udp_target"`     // Target address for the UDP emitter
}

// RecordingConfig controls the optional WAV tap of the analysis channel.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
}

// MediaConfig holds settings for the remote media fetcher.
type MediaConfig struct {
	CacheDir string `yaml:"cache_dir"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			LowLatency:      DefaultLowLatency,
		},
		Haptics: HapticsConfig{
			Emitter:       DefaultEmitter,
			WebSocketAddr: DefaultWebSocketAddr,
			UDPTarget:     DefaultUDPTarget,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: DefaultRecordingDir,
		},
		Media: MediaConfig{
			CacheDir: DefaultMediaCacheDir,
		},
	}
}

// Load reads configuration from the YAML file at path. If path is empty it
// searches default locations ("config.yaml") and falls back to built-in
// defaults when no file is found. Environment overrides are applied after
// loading and the final configuration is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"config.yaml"}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against the engine's hard limits.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside supported range [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) {
		return fmt.Errorf("audio.frames_per_buffer must be a power of 2, got %d",
			c.Audio.FramesPerBuffer)
	}
	if c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer %d exceeds maximum %d",
			c.Audio.FramesPerBuffer, MaxBufferFrames)
	}
	if c.Audio.InputChannels < 1 {
		return fmt.Errorf("audio.input_channels must be at least 1, got %d",
			c.Audio.InputChannels)
	}
	switch c.Haptics.Emitter {
	case EmitterLog, EmitterWebSocket, EmitterUDP:
	default:
		return fmt.Errorf("haptics.emitter %q is not one of %q, %q, %q",
			c.Haptics.Emitter, EmitterLog, EmitterWebSocket, EmitterUDP)
	}
	return nil
}

// applyEnvOverrides applies PULSE_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("PULSE_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("PULSE_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("PULSE_EMITTER"); ok {
		c.Haptics.Emitter = val
	}
	if val, ok := os.LookupEnv("PULSE_WEBSOCKET_ADDR"); ok {
		c.Haptics.WebSocketAddr = val
	}
	if val, ok := os.LookupEnv("PULSE_UDP_TARGET"); ok {
		c.Haptics.UDPTarget = val
	}
	if val, ok := os.LookupEnv("PULSE_MEDIA_CACHE_DIR"); ok {
		c.Media.CacheDir = val
	}
}
