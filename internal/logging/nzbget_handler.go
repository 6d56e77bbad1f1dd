package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
)

// nzbgetHandler writes single-line records prefixed with the message kind
// NZBGet recognizes on script output. NZBGet adds its own timestamps.
type nzbgetHandler struct {
	state handlerState
}

func newNZBGetHandler(w io.Writer, lvl *slog.LevelVar) slog.Handler {
	return &nzbgetHandler{state: newHandlerState(w, lvl)}
}

func (h *nzbgetHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.state.level.Level()
}

func (h *nzbgetHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.state.level.Level() {
		return nil
	}
	component, kvs := h.state.collect(record)

	var buf bytes.Buffer
	buf.Grow(96 + len(kvs)*24)
	buf.WriteByte('[')
	buf.WriteString(nzbgetLabel(record.Level))
	buf.WriteString("] ")
	if component != "" {
		buf.WriteString(component)
		buf.WriteString(": ")
	}
	// Embedded newlines would be read by NZBGet as unprefixed lines.
	message := strings.ReplaceAll(strings.TrimSpace(record.Message), "\n", " ")
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(message)
	for _, kv := range kvs {
		buf.WriteByte(' ')
		buf.WriteString(kv.key)
		buf.WriteByte('=')
		buf.WriteString(formatValue(kv.value))
	}
	buf.WriteByte('\n')
	return h.state.write(buf.Bytes())
}

func (h *nzbgetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &nzbgetHandler{state: h.state.withAttrs(attrs)}
}

func (h *nzbgetHandler) WithGroup(name string) slog.Handler {
	return &nzbgetHandler{state: h.state.withGroup(name)}
}

func nzbgetLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DETAIL"
	}
}
