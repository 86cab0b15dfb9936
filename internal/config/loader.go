package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/MrWong99/echodiff/internal/langtag"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"asr": {"whisper", "whisper-native"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Language != "" {
		if _, err := langtag.Resolve(cfg.Language); err != nil {
			errs = append(errs, fmt.Errorf("language %q is not a valid BCP 47 tag: %v", cfg.Language, err))
		}
	}

	if cfg.ASR.Provider.Name == "" && len(cfg.ASR.Fallbacks) > 0 {
		errs = append(errs, errors.New("asr.fallbacks is set but asr.provider is not configured"))
	}
	if cfg.ASR.Provider.Name != "" {
		errs = append(errs, validateProviderEntry("asr.provider", cfg.ASR.Provider)...)
	}
	for i, entry := range cfg.ASR.Fallbacks {
		prefix := fmt.Sprintf("asr.fallbacks[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		errs = append(errs, validateProviderEntry(prefix, entry)...)
	}

	return errors.Join(errs...)
}

// validateProviderEntry checks the per-provider required fields, returning
// any hard failures and warning about unrecognised provider names.
func validateProviderEntry(prefix string, entry ProviderEntry) []error {
	var errs []error

	validateProviderName("asr", entry.Name)

	switch entry.Name {
	case "whisper":
		if entry.ServerURL == "" {
			errs = append(errs, fmt.Errorf("%s.server_url is required for the whisper provider", prefix))
		}
	case "whisper-native":
		if entry.ModelPath == "" {
			errs = append(errs, fmt.Errorf("%s.model_path is required for the whisper-native provider", prefix))
		}
	}

	if entry.Language != "" {
		if _, err := langtag.Resolve(entry.Language); err != nil {
			errs = append(errs, fmt.Errorf("%s.language %q is not a valid BCP 47 tag: %v", prefix, entry.Language, err))
		}
	}
	return errs
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
