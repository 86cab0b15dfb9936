// Package config provides the configuration schema, loader, and provider
// registry for echodiff.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level maps l onto the corresponding [slog.Level]. Unknown or empty
// levels map to info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Config is the root configuration structure for echodiff.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls log verbosity: debug, info, warn, error.
	LogLevel LogLevel `yaml:"log_level"`

	// Language is the default BCP 47 tag used for text normalization
	// and for picking a transcription language, e.g. "en-US".
	Language string `yaml:"language"`

	// FaultTolerant substitutes an evenly interpolated index mapping
	// when a normalization rule misbehaves, instead of failing the pair.
	FaultTolerant bool `yaml:"fault_tolerant"`

	// NoColor disables ANSI color in rendered diff output.
	NoColor bool `yaml:"no_color"`

	Metrics MetricsConfig `yaml:"metrics"`
	ASR     ASRConfig     `yaml:"asr"`
	MCP     MCPConfig     `yaml:"mcp"`
}

// MetricsConfig configures the optional Prometheus metrics listener.
type MetricsConfig struct {
	// ListenAddr is the address the /metrics endpoint binds to,
	// e.g. ":9090". Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`
}

// MCPConfig configures the MCP tool server.
type MCPConfig struct {
	// Enabled serves the diff tools over MCP stdio instead of running
	// a one-shot comparison.
	Enabled bool `yaml:"enabled"`
}

// ASRConfig selects the transcription provider chain.
type ASRConfig struct {
	// Provider is the primary transcription provider.
	Provider ProviderEntry `yaml:"provider"`

	// Fallbacks are tried in order when the primary provider fails.
	Fallbacks []ProviderEntry `yaml:"fallbacks"`
}

// ProviderEntry configures a single transcription provider. The zero
// value means "not configured". Entries are comparable and double as
// cache keys in the provider registry.
type ProviderEntry struct {
	// Name selects the provider implementation, e.g. "whisper" or
	// "whisper-native".
	Name string `yaml:"name"`

	// ServerURL is the base URL of a whisper.cpp server ("whisper").
	ServerURL string `yaml:"server_url"`

	// ModelPath is the GGML model file for in-process transcription
	// ("whisper-native").
	ModelPath string `yaml:"model_path"`

	// Model names the server-side model to use, if the server hosts
	// several.
	Model string `yaml:"model"`

	// Language overrides the transcription language for this provider.
	// Empty derives it from the top-level language setting.
	Language string `yaml:"language"`
}

// Default returns a config with the documented default values.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Language: "en-US",
	}
}
