package adapters

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"

	"ats-aggregator/internal/logging/types"
)

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format    string    `yaml:"format"`    // json or text
	Colorized bool      `yaml:"colorized"` // text only
	Writer    io.Writer `yaml:"-"`         // defaults to os.Stdout
}

// StdoutAdapter renders entries through log/slog: JSON lines, or tint's
// human-readable console format for text.
type StdoutAdapter struct {
	name    string
	handler slog.Handler
	mu      sync.Mutex
}

// NewStdoutAdapter creates a new stdout adapter
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	w := config.Writer
	if w == nil {
		w = os.Stdout
	}

	var handler slog.Handler
	if strings.EqualFold(config.Format, "text") {
		handler = tint.NewHandler(w, &tint.Options{
			Level:       slog.LevelDebug,
			TimeFormat:  time.RFC3339,
			NoColor:     !config.Colorized,
			ReplaceAttr: renameFatal,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       slog.LevelDebug,
			ReplaceAttr: renameFatal,
		})
	}

	return &StdoutAdapter{name: name, handler: handler}
}

// Write writes a log entry
func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	record := slog.NewRecord(entry.Timestamp, entry.Level.Slog(), entry.Message, 0)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		record.AddAttrs(attr(k, entry.Fields[k]))
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handler.Handle(ctx, record)
}

func (a *StdoutAdapter) Close() error { return nil }

func (a *StdoutAdapter) Name() string { return a.name }

// attr renders errors by message; slog would otherwise encode them as {}.
func attr(key string, value interface{}) slog.Attr {
	if err, ok := value.(error); ok {
		return slog.String(key, err.Error())
	}
	return slog.Any(key, value)
}

func renameFatal(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl > slog.LevelError {
			return slog.String(slog.LevelKey, "FATAL")
		}
	}
	return a
}
