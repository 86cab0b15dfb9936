// Package mcpserver exposes the transcript comparison tools over the Model
// Context Protocol, so agent frontends can diff transcripts without shelling
// out to the CLI.
package mcpserver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/MrWong99/echodiff/internal/observe"
	"github.com/MrWong99/echodiff/internal/textdiff"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config carries the server identity and the diff defaults applied when a
// tool call omits them.
type Config struct {
	ServerName    string
	ServerVersion string

	// Language is the BCP 47 tag used when a tool call does not name one.
	Language string

	// FaultTolerant applies lenient normalization to tool inputs.
	FaultTolerant bool
}

// Server serves the diff tools over MCP stdio.
type Server struct {
	name      string
	mcpServer *sdk.Server
	logger    *slog.Logger
	metrics   *observe.Metrics

	// defaults may be hot-reloaded while the server runs.
	mu            sync.RWMutex
	language      string
	faultTolerant bool
	differ        *textdiff.Differ
}

// New creates an MCP server with all tools registered.
func New(cfg Config) *Server {
	if cfg.ServerName == "" {
		cfg.ServerName = "echodiff"
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	s := &Server{
		name:          cfg.ServerName,
		logger:        slog.Default(),
		metrics:       observe.DefaultMetrics(),
		language:      cfg.Language,
		faultTolerant: cfg.FaultTolerant,
		differ:        newDiffer(cfg.FaultTolerant),
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)
	s.registerTools()

	return s
}

func newDiffer(faultTolerant bool) *textdiff.Differ {
	var opts []textdiff.DifferOption
	if faultTolerant {
		opts = append(opts, textdiff.FaultTolerant())
	}
	return textdiff.NewDiffer(opts...)
}

// Run serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio", "name", s.name)
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// UpdateDefaults swaps the default language and fault tolerance applied to
// tool calls. Safe to call while the server is running, e.g. from a config
// watcher.
func (s *Server) UpdateDefaults(language string, faultTolerant bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if language != "" {
		s.language = language
	}
	if faultTolerant != s.faultTolerant {
		s.faultTolerant = faultTolerant
		s.differ = newDiffer(faultTolerant)
	}
	s.logger.Info("tool defaults updated", "language", s.language, "fault_tolerant", s.faultTolerant)
}

// defaults returns the current language, fault tolerance, and differ.
func (s *Server) defaults() (string, bool, *textdiff.Differ) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language, s.faultTolerant, s.differ
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "diff_transcripts",
		Description: "Compare transcript hypotheses against reference texts, ignoring differences that disappear when both sides are read aloud.",
	}, s.handleDiffTranscripts)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "normalize_text",
		Description: "Rewrite a text the way a speaker would pronounce it: numbers, dates, currency amounts and abbreviations spelled out, punctuation dropped.",
	}, s.handleNormalizeText)
}
