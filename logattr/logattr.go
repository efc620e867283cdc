// Package logattr holds the log field names used across the server.
package logattr

import (
	"log/slog"
	"time"
)

// Log field names.
const (
	KeyVersion    = "version"
	KeySlug       = "slug"
	KeySource     = "source"
	KeyPath       = "path"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRequestID  = "request_id"
	KeyDurationMS = "duration_ms"
	KeyTemplate   = "template"
	KeyJob        = "job"
	KeyCount      = "count"
	KeyError      = "error"
)

func Version(v string) slog.Attr         { return slog.String(KeyVersion, v) }
func Slug(s string) slog.Attr            { return slog.String(KeySlug, s) }
func Source(s string) slog.Attr          { return slog.String(KeySource, s) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func RequestID(id string) slog.Attr      { return slog.String(KeyRequestID, id) }
func Duration(d time.Duration) slog.Attr { return slog.Float64(KeyDurationMS, float64(d)/float64(time.Millisecond)) }
func Template(name string) slog.Attr     { return slog.String(KeyTemplate, name) }
func Job(name string) slog.Attr          { return slog.String(KeyJob, name) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
