package ng

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is the event sink consumed by the client. Delivery is best-effort:
// implementations must never block or fail the calling request.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// SimpleLogger writes leveled lines to stderr via the standard log package.
type SimpleLogger struct {
	l *log.Logger
}

// NewSimpleLogger creates a console logger suitable for examples and tests.
func NewSimpleLogger() *SimpleLogger {
	return &SimpleLogger{l: log.New(os.Stderr, "", log.LstdFlags)}
}

func (s *SimpleLogger) Debug(msg string, keysAndValues ...any) { s.print("DEBUG", msg, keysAndValues) }
func (s *SimpleLogger) Info(msg string, keysAndValues ...any)  { s.print("INFO", msg, keysAndValues) }
func (s *SimpleLogger) Warn(msg string, keysAndValues ...any)  { s.print("WARN", msg, keysAndValues) }
func (s *SimpleLogger) Error(msg string, keysAndValues ...any) { s.print("ERROR", msg, keysAndValues) }

func (s *SimpleLogger) print(level, msg string, keysAndValues []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], keysAndValues[i+1])
	}
	s.l.Println(b.String())
}

// slogLogger bridges the Logger interface onto a *slog.Logger.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps a structured slog logger. A nil argument uses
// slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Debug(msg string, keysAndValues ...any) { s.l.Debug(msg, keysAndValues...) }
func (s *slogLogger) Info(msg string, keysAndValues ...any)  { s.l.Info(msg, keysAndValues...) }
func (s *slogLogger) Warn(msg string, keysAndValues ...any)  { s.l.Warn(msg, keysAndValues...) }
func (s *slogLogger) Error(msg string, keysAndValues ...any) { s.l.Error(msg, keysAndValues...) }

// logRecord is one buffered event in flight to the sink.
type logRecord struct {
	level string
	msg   string
	kv    []any
}

// AsyncLogger decouples log delivery from the request path with a bounded
// buffer drained by a single worker goroutine. When the buffer is full new
// records are dropped rather than blocking the caller.
type AsyncLogger struct {
	sink Logger
	ch   chan logRecord
	done chan struct{}
	once sync.Once
}

// NewAsyncLogger wraps sink with buffered, non-blocking delivery. buffer
// values below one are coerced to a default of 1024.
func NewAsyncLogger(sink Logger, buffer int) *AsyncLogger {
	if buffer < 1 {
		buffer = 1024
	}
	a := &AsyncLogger{
		sink: sink,
		ch:   make(chan logRecord, buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncLogger) run() {
	for rec := range a.ch {
		switch rec.level {
		case "debug":
			a.sink.Debug(rec.msg, rec.kv...)
		case "info":
			a.sink.Info(rec.msg, rec.kv...)
		case "warn":
			a.sink.Warn(rec.msg, rec.kv...)
		default:
			a.sink.Error(rec.msg, rec.kv...)
		}
	}
	close(a.done)
}

// Close stops the worker after draining buffered records.
func (a *AsyncLogger) Close() {
	a.once.Do(func() {
		close(a.ch)
		<-a.done
	})
}

func (a *AsyncLogger) send(level, msg string, kv []any) {
	select {
	case a.ch <- logRecord{level: level, msg: msg, kv: kv}:
	default:
		// Buffer full: drop rather than block the request path.
	}
}

func (a *AsyncLogger) Debug(msg string, keysAndValues ...any) { a.send("debug", msg, keysAndValues) }
func (a *AsyncLogger) Info(msg string, keysAndValues ...any)  { a.send("info", msg, keysAndValues) }
func (a *AsyncLogger) Warn(msg string, keysAndValues ...any)  { a.send("warn", msg, keysAndValues) }
func (a *AsyncLogger) Error(msg string, keysAndValues ...any) { a.send("error", msg, keysAndValues) }
