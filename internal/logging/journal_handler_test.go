package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

type sentEntry struct {
	message  string
	priority journal.Priority
	fields   map[string]string
}

func captureJournal(t *testing.T, err error) *[]sentEntry {
	t.Helper()
	var sent []sentEntry
	orig := journalSend
	journalSend = func(message string, priority journal.Priority, fields map[string]string) error {
		sent = append(sent, sentEntry{message, priority, fields})
		return err
	}
	t.Cleanup(func() { journalSend = orig })
	return &sent
}

func TestJournalHandler_Fields(t *testing.T) {
	sent := captureJournal(t, nil)

	logger := slog.New(NewJournalHandler(slog.LevelDebug)).With("module", "playback")
	logger.Warn("Audio failed", "animation", "meltdown", "clip", "alarm.mp3", "error", errors.New("no device"))

	if len(*sent) != 1 {
		t.Fatalf("sent %d entries, want 1", len(*sent))
	}
	e := (*sent)[0]
	if e.message != "Audio failed" || e.priority != journal.PriWarning {
		t.Errorf("message %q priority %d", e.message, e.priority)
	}
	want := map[string]string{
		"SYSLOG_IDENTIFIER": "canister",
		"CANISTER_MODULE":   "playback",
		"ANIMATION":         "meltdown",
		"CLIP":              "alarm.mp3",
		"ERROR":             "no device",
	}
	for k, v := range want {
		if e.fields[k] != v {
			t.Errorf("field %s = %q, want %q", k, e.fields[k], v)
		}
	}
	if _, ok := e.fields["MODULE"]; ok {
		t.Error("module attribute sent as MODULE as well as CANISTER_MODULE")
	}
}

func TestJournalHandler_Groups(t *testing.T) {
	sent := captureJournal(t, nil)

	logger := slog.New(NewJournalHandler(slog.LevelInfo)).With("module", "connection").WithGroup("client")
	logger.Debug("filtered")
	logger.Info("Client connected", "remote-addr", "unix")

	if len(*sent) != 1 {
		t.Fatalf("sent %d entries, want 1", len(*sent))
	}
	if fields := (*sent)[0].fields; fields["CLIENT_REMOTE_ADDR"] != "unix" {
		t.Errorf("grouped field = %v", fields)
	}
}

func TestJournalHandler_ReservedNames(t *testing.T) {
	sent := captureJournal(t, nil)

	slog.New(NewJournalHandler(slog.LevelInfo)).Info("Indicator set", "priority", "high", "canister_module", "x")

	fields := (*sent)[0].fields
	if fields["ATTR_PRIORITY"] != "high" || fields["ATTR_CANISTER_MODULE"] != "x" {
		t.Errorf("reserved names not prefixed: %v", fields)
	}
	if fields["CANISTER_MODULE"] != "app" {
		t.Errorf("CANISTER_MODULE = %q, want app", fields["CANISTER_MODULE"])
	}
}

func TestJournalHandler_SendError(t *testing.T) {
	captureJournal(t, errors.New("socket closed"))

	h := NewJournalHandler(slog.LevelInfo)
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "dropped", 0)
	if err := h.Handle(context.Background(), r); err == nil {
		t.Error("Handle() error = nil, want send error")
	}
}

func TestJournalKey(t *testing.T) {
	tests := map[string]string{
		"animation":   "ANIMATION",
		"client.addr": "CLIENT_ADDR",
		"_private":    "PRIVATE",
		"frame-1":     "FRAME_1",
		"__":          "",
	}
	for in, want := range tests {
		if got := journalKey(in); got != want {
			t.Errorf("journalKey(%q) = %q, want %q", in, got, want)
		}
	}
}
