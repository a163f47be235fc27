package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/proboscis/claude-block-checker/internal/config"
)

// ParseLevel maps a config level name onto zerolog; unknown names mean info.
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// New builds a logger writing to w. Text format uses the console writer.
func New(w io.Writer, cfg config.LoggingConfig) zerolog.Logger {
	if cfg.Format == "text" {
		w = zerolog.ConsoleWriter{Out: w, NoColor: !isTerminal(w)}
	}
	return zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// Setup builds the process logger. Logs go to stderr so stdout stays free
// for reports, JSON output and the MCP stdio transport.
func Setup(cfg config.LoggingConfig) zerolog.Logger {
	return New(os.Stderr, cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
