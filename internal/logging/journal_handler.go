package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

const journalIdentifier = "canister"

// journalSend is replaced in tests.
var journalSend = journal.Send

// JournalHandler is a slog.Handler that sends records to the systemd
// journal. The module becomes CANISTER_MODULE and every attribute its own
// uppercased field, so `journalctl ANIMATION=meltdown` works.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// Enabled implements slog.Handler.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	entry := newEntry(h.attrs, h.groups, r)
	priority := journalPriority(r.Level)
	if err := journalSend(entry.Message, priority, journalFields(entry)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to send to journal: %v\n", err)
		return err
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	copy(newAttrs[len(h.attrs):], attrs)
	return &JournalHandler{level: h.level, attrs: newAttrs, groups: h.groups}
}

// WithGroup implements slog.Handler.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name
	return &JournalHandler{level: h.level, attrs: h.attrs, groups: newGroups}
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// journalFields maps an entry onto journal fields. Attribute names are
// uppercased with every character outside [A-Z0-9_] replaced by '_';
// names that would collide with the fields set here are prefixed with
// ATTR_.
func journalFields(entry LogEntry) map[string]string {
	fields := map[string]string{
		"SYSLOG_IDENTIFIER": journalIdentifier,
		"CANISTER_MODULE":   entry.Module,
	}
	for k, v := range entry.Attributes {
		key := journalKey(k)
		if key == "" {
			continue
		}
		if _, taken := fields[key]; taken || key == "MESSAGE" || key == "PRIORITY" {
			key = "ATTR_" + key
		}
		fields[key] = fmt.Sprint(v)
	}
	return fields
}

func journalKey(name string) string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	// Leading underscores are reserved for trusted fields.
	return strings.TrimLeft(key, "_")
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
