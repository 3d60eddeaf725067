package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// CompactHandler renders records as single console lines:
//
//	[LEVEL] HH:MM:SS message | key=value key=value
//
// It trades slog's machine-friendly defaults for something readable while
// watching a terminal. Use SetJSONOutput when logs are collected.
type CompactHandler struct {
	leveler slog.Leveler

	// preamble holds attrs bound via WithAttrs, preformatted with a
	// leading space each so Handle can splice them in without re-walking.
	preamble []byte
	// prefix is the dot-joined list of open groups.
	prefix string

	mu  *sync.Mutex
	out io.Writer
}

// NewCompactHandler returns a handler writing compact lines to out. Only
// opts.Level is honored; ReplaceAttr and AddSource are not supported.
func NewCompactHandler(out io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	h := &CompactHandler{mu: &sync.Mutex{}, out: out}
	if opts != nil {
		h.leveler = opts.Level
	}
	return h
}

func (h *CompactHandler) Enabled(_ context.Context, l slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.leveler != nil {
		minLevel = h.leveler.Level()
	}
	return l >= minLevel
}

func (h *CompactHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, levelTag(r.Level)...)
	if !r.Time.IsZero() {
		buf = r.Time.AppendFormat(buf, "15:04:05")
		buf = append(buf, ' ')
	}
	buf = append(buf, r.Message...)

	wroteBar := false
	if len(h.preamble) > 0 {
		buf = append(buf, " |"...)
		buf = append(buf, h.preamble...)
		wroteBar = true
	}
	r.Attrs(func(a slog.Attr) bool {
		mark := len(buf)
		if !wroteBar {
			buf = append(buf, " |"...)
		}
		buf = append(buf, ' ')
		n := len(buf)
		buf = appendAttr(buf, h.prefix, a)
		if len(buf) == n {
			// Attr resolved to nothing, drop the separator too.
			buf = buf[:mark]
		} else {
			wroteBar = true
		}
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		mark := len(c.preamble)
		c.preamble = append(c.preamble, ' ')
		n := len(c.preamble)
		c.preamble = appendAttr(c.preamble, c.prefix, a)
		if len(c.preamble) == n {
			c.preamble = c.preamble[:mark]
		}
	}
	return c
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	if c.prefix == "" {
		c.prefix = name
	} else {
		c.prefix += "." + name
	}
	return c
}

// clone shares the mutex and writer so all descendants still serialize
// their writes.
func (h *CompactHandler) clone() *CompactHandler {
	return &CompactHandler{
		leveler:  h.leveler,
		preamble: slices.Clip(h.preamble),
		prefix:   h.prefix,
		mu:       h.mu,
		out:      h.out,
	}
}

// appendAttr writes one key=value pair. A few keys every component logs
// get shortened so routine lines stay scannable.
func appendAttr(buf []byte, prefix string, a slog.Attr) []byte {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return buf
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		for i, ga := range attrs {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = appendAttr(buf, key, ga)
		}
		return buf
	}
	switch a.Key {
	case "requestID":
		// Full UUIDs drown the line; the first bytes identify a request.
		id := a.Value.String()
		if len(id) > 8 {
			id = id[:8]
		}
		return fmt.Appendf(buf, "req=%s", id)
	case "durationMs":
		if a.Value.Kind() == slog.KindInt64 {
			return fmt.Appendf(buf, "duration=%dms", a.Value.Int64())
		}
	case "error":
		return fmt.Appendf(buf, "error=%q", a.Value.String())
	}
	val := a.Value.String()
	if needsQuoting(val) {
		return fmt.Appendf(buf, "%s=%q", key, val)
	}
	return fmt.Appendf(buf, "%s=%s", key, val)
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, " \t\n\"=|")
}

// levelTag returns a fixed-width prefix so messages line up down the page.
func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelDebug:
		return "[TRACE] "
	case l < slog.LevelInfo:
		return "[DEBUG] "
	case l < slog.LevelWarn:
		return "[INFO]  "
	case l < slog.LevelError:
		return "[WARN]  "
	default:
		return "[ERROR] "
	}
}
