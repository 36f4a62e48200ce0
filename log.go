// File: lixenwraith/argtree/log.go
package argtree

import (
	"log/slog"
)

// Warning is an advisory diagnostic produced during resolution.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

// warnSink collects warnings for a single resolution call and mirrors them
// to the logger.
type warnSink struct {
	logger   *slog.Logger
	warnings []Warning
}

func newWarnSink(logger *slog.Logger) *warnSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &warnSink{logger: logger}
}

func (s *warnSink) warn(path, msg string) {
	s.warnings = append(s.warnings, Warning{Path: path, Message: msg})
	s.logger.Warn(msg, "path", path)
}

func (s *warnSink) debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}
