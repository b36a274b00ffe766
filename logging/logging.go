// Package logging builds the harness's slog loggers.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorDebug = lipgloss.Color("#2C4A54")
	colorInfo  = lipgloss.Color("#20B9B4")
	colorWarn  = lipgloss.Color("#F4D03F")
	colorError = lipgloss.Color("#E74C3C")
)

// Config selects the output and verbosity of a logger.
type Config struct {
	// Verbosity counts -v flags: 0 warns, 1 informs, 2 or more debugs.
	Verbosity int
	Output    io.Writer
	// Color forces colored level tags on or off. Nil detects a terminal.
	Color *bool
}

// LevelFor maps a verbosity count onto a slog level.
func LevelFor(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	color := isTerminal(out)
	if cfg.Color != nil {
		color = *cfg.Color
	}
	opts := &slog.HandlerOptions{Level: LevelFor(cfg.Verbosity)}
	if color {
		opts.ReplaceAttr = colorLevel
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

func colorLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(levelColor(level))
	return slog.String(a.Key, style.Render(level.String()))
}

func levelColor(level slog.Level) lipgloss.Color {
	switch {
	case level >= slog.LevelError:
		return colorError
	case level >= slog.LevelWarn:
		return colorWarn
	case level >= slog.LevelInfo:
		return colorInfo
	default:
		return colorDebug
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
