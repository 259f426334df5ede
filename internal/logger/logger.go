// Package logger provides the engine's console/structured logging surface.
//
// Output is colorized console text, with the tag as a field, when stdout is a terminal,
// and structured JSON otherwise (piped into a file, a unit collector, etc.),
// both backed by zerolog.
package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var base zerolog.Logger

func init() {
	Init(os.Stdout)
}

// Init (re)configures the package-level logger to write to w. The package's
// init calls it with os.Stdout; calling it again redirects output.
func Init(w *os.File) {
	if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
		console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: false}
		base = zerolog.New(console).With().Timestamp().Logger()
		return
	}
	base = zerolog.New(w).With().Timestamp().Logger()
}

// Info logs a neutral event under tag.
func Info(tag, message string) {
	base.Info().Str("tag", tag).Msg(message)
}

// Success logs a favorable event under tag (order filled, budget check passed, ...).
func Success(tag, message string) {
	base.Info().Str("tag", tag).Bool("ok", true).Msg(message)
}

// Warn logs a recoverable anomaly under tag (timeout, retry, slippage, ...).
func Warn(tag, message string) {
	base.Warn().Str("tag", tag).Msg(message)
}

// Error logs a failed operation under tag.
func Error(tag, message string) {
	base.Error().Str("tag", tag).Msg(message)
}

// Banner prints a one-line startup banner naming the build version.
func Banner(version string) {
	v := version
	if v == "" {
		v = "dev"
	}
	fmt.Fprintf(os.Stdout, "%s option-strategy-engine %s\n", strings.Repeat("=", 8), v)
}

// Section prints a visual section break with the given title.
func Section(title string) {
	base.Info().Msg(strings.Repeat("-", 4) + " " + title + " " + strings.Repeat("-", 4))
}

// Stats logs a single labeled metric value.
func Stats(key string, value any) {
	base.Info().Str("metric", key).Interface("value", value).Msg("stat")
}
