package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// blockingWriter holds every write until release is closed.
type blockingWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	release chan struct{}
	closed  bool
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *blockingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestFileSink_DropsWhenFull(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	sink := NewFileSink(w, 2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			sink.Enqueue("line\n")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}

	if sink.Dropped() == 0 {
		t.Error("Dropped() = 0, want lines dropped while writer is stuck")
	}

	close(w.release)
	sink.Close()

	if !w.closed {
		t.Error("Close() did not close the writer")
	}
	written := strings.Count(w.buf.String(), "line\n")
	if uint64(written)+sink.Dropped() != 50 {
		t.Errorf("written %d + dropped %d != 50", written, sink.Dropped())
	}
}

func TestFileSink_EnqueueAfterClose(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	close(w.release)
	sink := NewFileSink(w, 4)
	sink.Close()

	if sink.Enqueue("late\n") {
		t.Error("Enqueue() after Close() = true, want false")
	}
	// Second close must be safe
	sink.Close()
}

func TestFormatFileLine(t *testing.T) {
	entry := LogEntry{
		Timestamp: time.Date(2026, 3, 9, 14, 5, 7, 0, time.UTC),
		Level:     "info",
		Module:    "connection",
		Message:   "Client connected",
		Attributes: map[string]any{
			"remote": "tcp",
			"id":     3,
		},
	}

	got := FormatFileLine(entry)
	want := "03/09/26 14:05:07 : [connection] Client connected id=3 remote=tcp\n"
	if got != want {
		t.Errorf("FormatFileLine() = %q, want %q", got, want)
	}
}

func TestInitializeWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canister.log")

	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	mutex.Unlock()

	if err := Initialize(Config{Level: "info", Format: "text", File: path}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	GetLogger("connection").Info("Client connected", "remote", "unix")
	GetLogger("connection").Debug("filtered out")
	Shutdown()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "[connection] Client connected remote=unix") {
		t.Errorf("log file missing entry: %q", content)
	}
	if strings.Contains(content, "filtered out") {
		t.Errorf("log file contains debug entry below level: %q", content)
	}
}

func TestInitializeBadLogFile(t *testing.T) {
	dir := t.TempDir()
	err := Initialize(Config{Level: "info", File: filepath.Join(dir, "missing", "x.log")})
	if err == nil {
		t.Error("Initialize() with unwritable file succeeded")
	}
	if GetSink() != nil {
		t.Error("GetSink() != nil after failed open")
	}
	if GetHistory() == nil {
		t.Error("log history not set up after failed file open")
	}
}
