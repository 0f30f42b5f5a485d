package core

import (
	"iter"
	"sync"
)

// ResultHistory is the session's record of completed analyses, newest
// first. Entries are only ever added at the head.
type ResultHistory struct {
	mu        sync.RWMutex
	entries   []AnalysisResult // oldest first, so prepend is an append
	listeners []func(AnalysisResult)
}

// NewResultHistory creates an empty history
func NewResultHistory() *ResultHistory {
	return &ResultHistory{}
}

// Prepend inserts a result at the head
func (h *ResultHistory) Prepend(result AnalysisResult) {
	h.mu.Lock()
	h.entries = append(h.entries, result)
	listeners := h.listeners
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
}

// OnPrepend registers fn to be called after every prepend
func (h *ResultHistory) OnPrepend(fn func(AnalysisResult)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// copy on write so Prepend can call listeners without the lock
	listeners := make([]func(AnalysisResult), len(h.listeners), len(h.listeners)+1)
	copy(listeners, h.listeners)
	h.listeners = append(listeners, fn)
}

// All yields results newest to oldest. The sequence is restartable and
// reflects the history at the moment iteration starts.
func (h *ResultHistory) All() iter.Seq[AnalysisResult] {
	return func(yield func(AnalysisResult) bool) {
		h.mu.RLock()
		entries := h.entries[:len(h.entries):len(h.entries)]
		h.mu.RUnlock()

		for i := len(entries) - 1; i >= 0; i-- {
			if !yield(entries[i]) {
				return
			}
		}
	}
}

// Snapshot returns a copy of the history, newest first
func (h *ResultHistory) Snapshot() []AnalysisResult {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]AnalysisResult, 0, len(h.entries))
	for i := len(h.entries) - 1; i >= 0; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// Len returns the number of results
func (h *ResultHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
