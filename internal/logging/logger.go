// Package logging configures the process-wide logrus logger and hands out
// request-scoped entries.
package logging

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Setup applies level ("debug", "info", "warn", "error"; default info) and
// format ("text", "json", "auto"; default auto) to the shared logger.
// "auto" picks text when out is a terminal and JSON otherwise.
func Setup(level, format string, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetLevel(parseLevel(level))
	logger.SetFormatter(formatterFor(format, out))
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return logger
}

// FromContext returns an entry carrying the chi request id when ctx has one.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(logger)
	if ctx == nil {
		return entry
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		entry = entry.WithField("request_id", reqID)
	}
	return entry
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func formatterFor(format string, out io.Writer) logrus.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return &logrus.JSONFormatter{}
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}
	default:
		if isTerminal(out) {
			return &logrus.TextFormatter{FullTimestamp: true}
		}
		return &logrus.JSONFormatter{}
	}
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
