package logger

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiPurple = "\033[35m"
	ansiWhite  = "\033[37m"
)

// tags maps the "type" attr to the bracketed category shown in output.
var tags = map[string]string{
	"cmd":   "CMD",
	"db":    "DB",
	"game":  "GAME",
	"eco":   "ECO",
	"error": "ERR",
}

// gateway/ratelimit chatter from the client library that drowns out
// everything else at debug level.
var noisePrefixes = []string{
	"locking",
	"unlocking",
	"gateway event",
	"cleaning up bucket",
	"cleaned up rate limit",
	"binary message received",
	"received gateway message",
	"opening gateway connection",
	"sending gateway command",
	"sending heartbeat",
	"sending identify",
	"ready message received",
	"rate limit response headers",
	"new request",
	"new response",
}

// CustomHandler prints compact colorized lines tagged with a log
// category instead of structured key=value spam.
type CustomHandler struct {
	level   slog.Level
	started time.Time
	attrs   []slog.Attr
}

func NewHandler() *CustomHandler {
	return &CustomHandler{
		level:   slog.LevelDebug,
		started: time.Now(),
	}
}

func (h *CustomHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CustomHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

func (h *CustomHandler) WithGroup(string) slog.Handler {
	c := *h
	return &c
}

// fields is everything Handle pulls out of a record in one pass.
type fields struct {
	tag      string
	status   string
	userName string
	cmdName  string
	errText  string
	errWhere string
}

func scan(r *slog.Record) fields {
	f := fields{tag: "SYS"}
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "type":
			if t, ok := tags[a.Value.String()]; ok {
				f.tag = t
			}
		case "status":
			f.status = a.Value.String()
		case "user_name":
			f.userName = a.Value.String()
		case "name":
			f.cmdName = a.Value.String()
		case "error":
			f.errText = fmt.Sprintf("%v", a.Value)
		case "error_location":
			f.errWhere = a.Value.String()
		}
		return true
	})
	return f
}

func (h *CustomHandler) Handle(_ context.Context, r slog.Record) error {
	lower := strings.ToLower(r.Message)
	for _, p := range noisePrefixes {
		if strings.Contains(lower, p) {
			return nil
		}
	}

	levelText, levelColor := "INFO", ansiGreen
	switch r.Level {
	case slog.LevelDebug:
		levelText, levelColor = "DEBUG", ansiPurple
	case slog.LevelWarn:
		levelText, levelColor = "WARN", ansiYellow
	case slog.LevelError:
		levelText, levelColor = "ERROR", ansiRed
	}

	f := scan(&r)

	msg := r.Message
	if r.Level == slog.LevelError {
		where := f.errWhere
		if where == "" {
			if file, line := callerLocation(); file != "" {
				where = fmt.Sprintf("%s:%d", file, line)
			}
		}
		if where != "" {
			msg = fmt.Sprintf("%s (%s)", msg, where)
		}
		if f.errText != "" {
			msg = fmt.Sprintf("%s: %s", msg, f.errText)
		}
	}
	if f.cmdName != "" && f.userName != "" {
		msg = fmt.Sprintf("%s [%s by %s]", msg, f.cmdName, f.userName)
	}
	if f.status != "" {
		msg = fmt.Sprintf("%s [Status: %s]", msg, f.status)
	}
	if up := time.Since(h.started).Milliseconds(); up > 0 {
		msg = fmt.Sprintf("%s (took %dms)", msg, up)
	}

	var extra strings.Builder
	for _, a := range h.attrs {
		switch a.Key {
		case "type", "name", "user_name", "status":
		default:
			fmt.Fprintf(&extra, " %s=%v", a.Key, a.Value)
		}
	}

	fmt.Printf("%s[Casino] [%s] [%s%s%s] [%s] %s%s%s\n",
		ansiWhite,
		time.Now().Format("15:04:05"),
		levelColor, levelText, ansiWhite,
		f.tag,
		msg,
		extra.String(),
		ansiReset,
	)
	return nil
}

func callerLocation() (string, int) {
	_, file, line, ok := runtime.Caller(4)
	if !ok {
		return "", 0
	}
	return filepath.Base(file), line
}
