package asr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrWong99/echodiff/pkg/audio"
)

// ErrAllFailed is returned when every provider in a [Fallback] fails.
var ErrAllFailed = errors.New("asr: all providers failed")

// fallbackEntry pairs a provider with the name used in log output.
type fallbackEntry struct {
	name     string
	provider Provider
}

// Fallback implements [Provider] with automatic failover across multiple
// backends, tried in registration order. Transcription is a one-shot batch
// call with no sustained request volume, so there are no circuit breakers:
// every call walks the list from the primary.
//
// Fallback is safe for concurrent use once constructed.
type Fallback struct {
	entries []fallbackEntry
	logger  *slog.Logger
}

var _ Provider = (*Fallback)(nil)

// NewFallback creates a [Fallback] with primary as the preferred backend.
func NewFallback(primaryName string, primary Provider) *Fallback {
	return &Fallback{
		entries: []fallbackEntry{{name: primaryName, provider: primary}},
		logger:  slog.Default(),
	}
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order
// they are added, after the primary.
func (f *Fallback) AddFallback(name string, provider Provider) {
	f.entries = append(f.entries, fallbackEntry{name: name, provider: provider})
}

// Transcribe tries each provider in order until one succeeds. Returns
// [ErrAllFailed] wrapped with the last error if every provider fails.
func (f *Fallback) Transcribe(ctx context.Context, clip audio.Clip) (Result, error) {
	var lastErr error
	for _, entry := range f.entries {
		result, err := entry.provider.Transcribe(ctx, clip)
		if err == nil {
			return result, nil
		}
		lastErr = err
		f.logger.Warn("transcription provider failed, trying next",
			"provider", entry.name, "error", err)
	}
	return Result{}, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// Close closes every registered provider and joins their errors.
func (f *Fallback) Close() error {
	var errs []error
	for _, entry := range f.entries {
		if err := entry.provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.name, err))
		}
	}
	return errors.Join(errs...)
}
