// Package whisper provides whisper.cpp-backed transcription providers: an
// HTTP client for a running whisper-server binary and a native in-process
// provider using the CGO bindings.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/MrWong99/echodiff/pkg/asr"
	"github.com/MrWong99/echodiff/pkg/audio"
)

const defaultTimeout = 2 * time.Minute

// Compile-time assertion that Provider implements asr.Provider.
var _ asr.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier forwarded to the whisper-server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithLanguage sets the language code sent to the whisper-server (e.g.,
// "en", "de"). When empty the server auto-detects — this is the default.
func WithLanguage(lang string) Option {
	return func(p *Provider) { p.language = lang }
}

// WithTimeout sets the per-request timeout. Defaults to 2 minutes: batch
// inference on long clips is slow on CPU-only servers.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) { p.httpClient.Timeout = d }
}

// Provider implements asr.Provider backed by a whisper-server HTTP endpoint
// (POST /inference). Each call is a one-shot batch inference.
type Provider struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Provider that connects to the whisper-server at serverURL
// (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Provider, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	p := &Provider{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe resamples the clip to the whisper rate, encodes it as WAV and
// POSTs it to the /inference endpoint as multipart/form-data.
func (p *Provider) Transcribe(ctx context.Context, clip audio.Clip) (asr.Result, error) {
	clip = clip.Resampled(audio.WhisperSampleRate)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return asr.Result{}, fmt.Errorf("whisper: create form file: %w", err)
	}
	if err := audio.EncodeWAV(fw, clip); err != nil {
		return asr.Result{}, fmt.Errorf("whisper: encode wav: %w", err)
	}

	// Optional hint fields.
	if p.language != "" {
		if err := mw.WriteField("language", p.language); err != nil {
			return asr.Result{}, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if p.model != "" {
		if err := mw.WriteField("model", p.model); err != nil {
			return asr.Result{}, fmt.Errorf("whisper: write model field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return asr.Result{}, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := p.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return asr.Result{}, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return asr.Result{}, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return asr.Result{}, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return asr.Result{}, fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return asr.Result{}, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	lang := result.Language
	if lang == "" {
		lang = p.language
	}
	return asr.Result{Text: result.Text, Language: lang}, nil
}

// Close releases idle connections. The provider holds no other resources.
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
