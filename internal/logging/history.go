package logging

import (
	"sync"
	"time"
)

// LogEntry is one log record as kept in memory and written to the log file.
type LogEntry struct {
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// History keeps the newest log entries for the HTTP API. Once full, each
// new entry overwrites the oldest one.
type History struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int
	full    bool
	written uint64
}

// NewHistory creates a history holding up to capacity entries.
func NewHistory(capacity int) *History {
	return &History{entries: make([]LogEntry, max(capacity, 1))}
}

// Add records entry.
func (h *History) Add(entry LogEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.next] = entry
	h.next++
	if h.next == len(h.entries) {
		h.next = 0
		h.full = true
	}
	h.written++
}

// Query returns the newest entries logged by module, oldest first. An empty
// module matches all modules; limit <= 0 returns every match.
func (h *History) Query(module string, limit int) []LogEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []LogEntry
	// Walk newest to oldest so limit keeps the most recent matches.
	n := h.lenLocked()
	for i := 1; i <= n; i++ {
		e := h.entries[(h.next-i+len(h.entries))%len(h.entries)]
		if module != "" && e.Module != module {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of entries held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lenLocked()
}

func (h *History) lenLocked() int {
	if h.full {
		return len(h.entries)
	}
	return h.next
}

// Stats describes the log pipeline.
type Stats struct {
	Buffered    int    `json:"buffered" example:"1000" doc:"Entries held in memory"`
	Capacity    int    `json:"capacity" example:"1000" doc:"Entries the in-memory history can hold"`
	Written     uint64 `json:"written" example:"5120" doc:"Entries logged since start"`
	FileDropped uint64 `json:"file_dropped" example:"0" doc:"Log file lines dropped because the writer fell behind"`
}

func (h *History) stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Buffered: h.lenLocked(),
		Capacity: len(h.entries),
		Written:  h.written,
	}
}
