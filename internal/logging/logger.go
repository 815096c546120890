package logging

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ats-aggregator/internal/errors"
	"ats-aggregator/internal/logging/types"
)

// sinkSet is shared by a logger and every logger derived from it, so adapters
// added later are seen by all of them.
type sinkSet struct {
	mu       sync.RWMutex
	adapters map[string]types.LogAdapter
	level    atomic.Int32
}

// MultiLogger writes every entry to all registered adapters
type MultiLogger struct {
	sinks  *sinkSet
	ctx    context.Context
	fields Fields
	now    func() time.Time
}

// NewMultiLogger creates a logger with no adapters at info level
func NewMultiLogger() *MultiLogger {
	sinks := &sinkSet{adapters: make(map[string]types.LogAdapter)}
	sinks.level.Store(int32(InfoLevel))
	return &MultiLogger{
		sinks:  sinks,
		ctx:    context.Background(),
		fields: Fields{},
		now:    time.Now,
	}
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.Log(DebugLevel, message, fields...)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.Log(InfoLevel, message, fields...)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.Log(WarnLevel, message, fields...)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.Log(ErrorLevel, message, fields...)
}

// Fatal logs, flushes every adapter and exits the process
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.Log(FatalLevel, message, fields...)
	_ = l.Close()
	os.Exit(1)
}

// Log writes an entry if level passes the threshold
func (l *MultiLogger) Log(level LogLevel, message string, fields ...map[string]interface{}) {
	if level < l.GetLevel() {
		return
	}

	entry := &types.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: l.now(),
		Context:   l.ctx,
		Fields:    l.merged(fields...),
	}

	l.sinks.mu.RLock()
	defer l.sinks.mu.RUnlock()

	for name, adapter := range l.sinks.adapters {
		if err := adapter.Write(entry); err != nil {
			// stderr, not the logger, to avoid recursion
			fmt.Fprintf(os.Stderr, "logging adapter %s error: %v\n", name, err)
		}
	}
}

func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return l.derive(ctx, nil)
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	return l.derive(l.ctx, Fields{key: value})
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	return l.derive(l.ctx, fields)
}

func (l *MultiLogger) SetLevel(level LogLevel) {
	l.sinks.level.Store(int32(level))
}

func (l *MultiLogger) GetLevel() LogLevel {
	return LogLevel(l.sinks.level.Load())
}

// AddAdapter registers a sink under its name
func (l *MultiLogger) AddAdapter(adapter types.LogAdapter) error {
	l.sinks.mu.Lock()
	defer l.sinks.mu.Unlock()

	name := adapter.Name()
	if _, exists := l.sinks.adapters[name]; exists {
		return errors.Newf("adapter %s already exists", name)
	}
	l.sinks.adapters[name] = adapter
	return nil
}

// Adapters lists the registered sink names
func (l *MultiLogger) Adapters() []string {
	l.sinks.mu.RLock()
	defer l.sinks.mu.RUnlock()

	names := make([]string, 0, len(l.sinks.adapters))
	for name := range l.sinks.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.sinks.mu.Lock()
	defer l.sinks.mu.Unlock()

	var failed []string
	for name, adapter := range l.sinks.adapters {
		if err := adapter.Close(); err != nil {
			failed = append(failed, fmt.Sprintf("adapter %s: %v", name, err))
		}
	}
	if len(failed) > 0 {
		return errors.Newf("failed to close adapters: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (l *MultiLogger) derive(ctx context.Context, extra Fields) *MultiLogger {
	return &MultiLogger{
		sinks:  l.sinks,
		ctx:    ctx,
		fields: l.merged(extra),
		now:    l.now,
	}
}

func (l *MultiLogger) merged(extra ...map[string]interface{}) Fields {
	fields := make(Fields, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	for _, m := range extra {
		for k, v := range m {
			fields[k] = v
		}
	}
	return fields
}
