package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// LanguageChanged means normalization and transcription language
	// selection changed.
	LanguageChanged bool

	FaultTolerantChanged bool
	ColorsChanged        bool

	// ASRChanged means the provider chain needs to be rebuilt.
	ASRChanged bool
}

// Empty reports whether no tracked field changed.
func (d ConfigDiff) Empty() bool {
	return d == ConfigDiff{}
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}
	if old.Language != new.Language {
		d.LanguageChanged = true
	}
	if old.FaultTolerant != new.FaultTolerant {
		d.FaultTolerantChanged = true
	}
	if old.NoColor != new.NoColor {
		d.ColorsChanged = true
	}
	if old.ASR.Provider != new.ASR.Provider || !slices.Equal(old.ASR.Fallbacks, new.ASR.Fallbacks) {
		d.ASRChanged = true
	}

	return d
}
