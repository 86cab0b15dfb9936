// Package asr defines the speech-to-text provider abstraction used to
// obtain hypothesis transcripts for diffing.
package asr

import (
	"context"

	"github.com/MrWong99/echodiff/pkg/audio"
)

// Result is one finished transcription.
type Result struct {
	// Text is the transcribed text.
	Text string

	// Language is the BCP-47 code of the transcription language: the code
	// the provider was configured with, or the detected one when the
	// provider auto-detects.
	Language string
}

// Provider transcribes audio clips. Implementations must be safe for
// concurrent use; Close releases any held resources (loaded models, idle
// connections) and must be called when the provider is no longer needed.
type Provider interface {
	Transcribe(ctx context.Context, clip audio.Clip) (Result, error)
	Close() error
}
