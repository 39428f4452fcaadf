package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	defaultSinkQueue = 256
	fileTimeLayout   = "01/02/06 15:04:05"
)

// FileSink appends log lines to a file from a background goroutine.
// Enqueue never blocks: when the queue is full the line is dropped and
// counted.
type FileSink struct {
	w       io.WriteCloser
	queue   chan string
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// OpenFileSink opens path for appending and starts the writer goroutine.
func OpenFileSink(path string, queueSize int) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewFileSink(f, queueSize), nil
}

// NewFileSink starts a sink writing to w.
func NewFileSink(w io.WriteCloser, queueSize int) *FileSink {
	if queueSize <= 0 {
		queueSize = defaultSinkQueue
	}
	s := &FileSink{
		w:     w,
		queue: make(chan string, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *FileSink) run() {
	defer close(s.done)
	for line := range s.queue {
		if _, err := io.WriteString(s.w, line); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write log file: %v\n", err)
		}
	}
}

// Enqueue queues one line for writing. It reports false when the line was
// dropped.
func (s *FileSink) Enqueue(line string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return false
	}
	select {
	case s.queue <- line:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// Dropped returns how many lines were discarded because the queue was full.
func (s *FileSink) Dropped() uint64 {
	return s.dropped.Load()
}

// Close writes out the queued lines and closes the file.
func (s *FileSink) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
		<-s.done
		_ = s.w.Close()
	})
}

// FileHandler is a slog.Handler that formats records as single lines and
// hands them to the global file sink.
type FileHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewFileHandler creates a handler writing to the sink set up by Initialize.
// Records are dropped while file logging is disabled.
func NewFileHandler(level slog.Leveler) *FileHandler {
	return &FileHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *FileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *FileHandler) Handle(_ context.Context, r slog.Record) error {
	sink := GetSink()
	if sink == nil {
		return nil
	}
	sink.Enqueue(FormatFileLine(newEntry(h.attrs, h.groups, r)))
	return nil
}

// WithAttrs implements slog.Handler.
func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &FileHandler{level: h.level, attrs: newAttrs, groups: h.groups}
}

// WithGroup implements slog.Handler.
func (h *FileHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name
	return &FileHandler{level: h.level, attrs: h.attrs, groups: newGroups}
}

// FormatFileLine renders an entry as "01/02/06 15:04:05 : [module] message k=v".
func FormatFileLine(entry LogEntry) string {
	var sb strings.Builder
	sb.WriteString(entry.Timestamp.Format(fileTimeLayout))
	sb.WriteString(" : [")
	sb.WriteString(entry.Module)
	sb.WriteString("] ")
	sb.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Attributes))
	for k := range entry.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprint(entry.Attributes[k]))
	}
	sb.WriteString("\n")
	return sb.String()
}
