package events

import "sync"

// Latest remembers the highest transition sequence number a subscriber has
// applied. kelindar/event does not order events published from different
// goroutines, so state derived from transitions must drop stale ones.
type Latest struct {
	mu  sync.Mutex
	seq uint64
}

// Admit reports whether seq is newer than every sequence admitted so far
// and records it. Zero means unsequenced and is always admitted.
func (l *Latest) Admit(seq uint64) bool {
	if seq == 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq <= l.seq {
		return false
	}
	l.seq = seq
	return true
}
