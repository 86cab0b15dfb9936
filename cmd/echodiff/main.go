// Command echodiff compares spoken-text transcripts against reference texts,
// ignoring differences that disappear when both sides are read aloud.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/echodiff/internal/config"
	"github.com/MrWong99/echodiff/internal/langtag"
	"github.com/MrWong99/echodiff/internal/mcpserver"
	"github.com/MrWong99/echodiff/internal/observe"
	"github.com/MrWong99/echodiff/internal/textdiff"
	"github.com/MrWong99/echodiff/pkg/asr"
	"github.com/MrWong99/echodiff/pkg/asr/whisper"
	"github.com/MrWong99/echodiff/pkg/audio"
)

var version = "dev"

func main() {
	os.Exit(run())
}

// multiFlag collects repeated string flag values.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	var refs, hyps, audioFiles multiFlag
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Var(&refs, "ref", "reference text (repeatable)")
	refFile := flag.String("ref-file", "", "file with one reference text per line")
	flag.Var(&hyps, "hyp", "hypothesis text to compare (repeatable)")
	hypFile := flag.String("hyp-file", "", "file with one hypothesis text per line")
	flag.Var(&audioFiles, "audio", "WAV file to transcribe as a hypothesis (repeatable)")
	lang := flag.String("lang", "", "BCP 47 language tag, overrides the config")
	noColor := flag.Bool("no-color", false, "disable ANSI colors in diff output")
	faultTolerant := flag.Bool("fault-tolerant", false, "tolerate misbehaving normalization rules")
	mcpMode := flag.Bool("mcp", false, "serve the diff tools over MCP stdio instead of running a comparison")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address, overrides the config")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, fromFile, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "echodiff: %v\n", err)
		return 2
	}
	applyFlagOverrides(cfg, *lang, *noColor, *faultTolerant, *mcpMode, *metricsAddr)

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel.Level()}))
	slog.SetDefault(logger)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "echodiff",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 2
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	if cfg.Metrics.ListenAddr != "" {
		srv := startMetricsServer(cfg.Metrics.ListenAddr)
		defer srv.Close()
	}

	// ── MCP mode ──────────────────────────────────────────────────────────────
	if cfg.MCP.Enabled {
		server := mcpserver.New(mcpserver.Config{
			ServerName:    "echodiff",
			ServerVersion: version,
			Language:      cfg.Language,
			FaultTolerant: cfg.FaultTolerant,
		})

		// A long-running server picks up edits to its config file. Only the
		// fields that are safe to change mid-flight are applied; provider
		// changes need a restart.
		if fromFile {
			w, err := config.NewWatcher(*configPath, func(old, next *config.Config) {
				d := config.Diff(old, next)
				if d.LogLevelChanged {
					slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: d.NewLogLevel.Level()})))
					slog.Info("log level changed", "level", d.NewLogLevel)
				}
				if d.LanguageChanged || d.FaultTolerantChanged {
					newLang, ft := next.Language, next.FaultTolerant
					if *lang != "" {
						newLang = *lang
					}
					if *faultTolerant {
						ft = true
					}
					server.UpdateDefaults(newLang, ft)
				}
				if d.ASRChanged {
					slog.Warn("transcription provider config changed, restart to apply")
				}
			})
			if err != nil {
				slog.Warn("config watcher unavailable", "err", err)
			} else {
				defer w.Stop()
			}
		}

		if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("mcp server error", "err", err)
			return 2
		}
		return 0
	}

	// ── One-shot comparison ───────────────────────────────────────────────────
	references, err := collectTexts(refs, *refFile)
	if err != nil {
		slog.Error("failed to read references", "err", err)
		return 2
	}
	if len(references) == 0 {
		fmt.Fprintln(os.Stderr, "echodiff: no references given — use -ref or -ref-file")
		flag.Usage()
		return 2
	}

	hypotheses, err := collectTexts(hyps, *hypFile)
	if err != nil {
		slog.Error("failed to read hypotheses", "err", err)
		return 2
	}
	diffLang := cfg.Language
	if len(audioFiles) > 0 {
		if len(hypotheses) > 0 {
			fmt.Fprintln(os.Stderr, "echodiff: -audio cannot be combined with -hyp or -hyp-file")
			return 2
		}
		if *lang != "" {
			// An explicit -lang pins the transcription language too.
			applyProviderLanguage(cfg, whisperLanguage(cfg.Language))
		}
		var detected string
		hypotheses, detected, err = transcribeFiles(ctx, cfg, audioFiles)
		if err != nil {
			slog.Error("transcription failed", "err", err)
			return 2
		}
		// Without an explicit -lang, trust what the provider heard.
		if *lang == "" && detected != "" {
			diffLang = detected
		}
	}

	var differOpts []textdiff.DifferOption
	if cfg.FaultTolerant {
		differOpts = append(differOpts, textdiff.FaultTolerant())
	}
	differ := textdiff.NewDiffer(differOpts...)

	diffs, err := differ.Diff(ctx, references, hypotheses, diffLang)
	if err != nil {
		slog.Error("diff failed", "err", err)
		return 2
	}

	mismatched := false
	for _, regions := range diffs {
		for _, r := range regions {
			if !r.PronunciationMatch {
				mismatched = true
				break
			}
		}
		fmt.Println(textdiff.Render(regions, !cfg.NoColor))
	}

	// diff-like exit status: 0 when everything matches, 1 when differences
	// were found, 2 on errors.
	if mismatched {
		return 1
	}
	return 0
}

// loadConfig loads the config file at path and reports whether a file was
// actually read. A missing file at the default location is not an error; the
// built-in defaults apply.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == "config.yaml" {
		return config.Default(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// applyFlagOverrides lets CLI flags take precedence over the config file.
func applyFlagOverrides(cfg *config.Config, lang string, noColor, faultTolerant, mcpMode bool, metricsAddr string) {
	if lang != "" {
		cfg.Language = lang
	}
	if noColor {
		cfg.NoColor = true
	}
	if faultTolerant {
		cfg.FaultTolerant = true
	}
	if mcpMode {
		cfg.MCP.Enabled = true
	}
	if metricsAddr != "" {
		cfg.Metrics.ListenAddr = metricsAddr
	}
}

// collectTexts merges repeated flag values with the lines of an optional file.
func collectTexts(values []string, path string) ([]string, error) {
	texts := append([]string(nil), values...)
	if path == "" {
		return texts, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return texts, nil
}

// registerBuiltinProviders registers a factory for every transcription
// provider echodiff ships with. Registration lives here so internal/config
// stays clear of the native bindings' build requirements.
func registerBuiltinProviders(reg *config.Registry) {
	reg.RegisterASR("whisper", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		return whisper.New(entry.ServerURL, opts...)
	})

	reg.RegisterASR("whisper-native", func(entry config.ProviderEntry) (asr.Provider, error) {
		var opts []whisper.NativeOption
		if entry.Language != "" {
			opts = append(opts, whisper.WithNativeLanguage(entry.Language))
		}
		return whisper.NewNative(entry.ModelPath, opts...)
	})
}

// whisperLanguage maps a BCP 47 tag onto the closest whisper language code,
// or "" (auto-detect) when nothing matches.
func whisperLanguage(tag string) string {
	matches, err := langtag.Match(tag, whisper.Languages, false)
	if err != nil || len(matches) == 0 {
		return ""
	}
	return whisper.Languages[matches[0]]
}

// applyProviderLanguage fills in the language of every provider entry that
// leaves it unset. Entries with an explicitly configured language keep it.
func applyProviderLanguage(cfg *config.Config, code string) {
	if code == "" {
		return
	}
	if cfg.ASR.Provider.Language == "" {
		cfg.ASR.Provider.Language = code
	}
	for i := range cfg.ASR.Fallbacks {
		if cfg.ASR.Fallbacks[i].Language == "" {
			cfg.ASR.Fallbacks[i].Language = code
		}
	}
}

// transcribeFiles builds the configured provider chain and transcribes each
// WAV file into a hypothesis text. The second return value is the language
// the provider detected, when it reported one.
func transcribeFiles(ctx context.Context, cfg *config.Config, paths []string) ([]string, string, error) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	defer func() {
		if err := reg.Close(); err != nil {
			slog.Warn("provider close error", "err", err)
		}
	}()

	provider, err := reg.BuildASR(cfg)
	if err != nil {
		return nil, "", err
	}

	var detected string
	texts := make([]string, len(paths))
	for i, path := range paths {
		clip, err := audio.DecodeWAVFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("decode %q: %w", path, err)
		}

		var res asr.Result
		res, err = provider.Transcribe(ctx, clip)
		if err != nil {
			return nil, "", fmt.Errorf("transcribe %q: %w", path, err)
		}
		slog.Info("transcribed audio file",
			"path", path,
			"duration", clip.Duration(),
			"language", res.Language,
		)
		if detected == "" {
			detected = res.Language
		}
		texts[i] = res.Text
	}
	return texts, detected, nil
}

// startMetricsServer serves the Prometheus /metrics endpoint in the
// background until the process exits.
func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}
	go func() {
		slog.Info("metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics listener error", "err", err)
		}
	}()
	return srv
}
