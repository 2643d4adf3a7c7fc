// Package progress provides state management for rendering batch
// progress in the terminal. The replace and pull commands update it
// from the orchestration loop while a ticker goroutine redraws a pterm
// area from it, so all access serializes through a mutex.
package progress

import (
	"fmt"
	"strings"
	"sync"
)

// State tracks per-batch progress for the current run.
type State struct {
	// mu protects concurrent access to all fields
	mu sync.Mutex
	// active maps batch ids to their current stage description
	active map[int]string
	// counts maps batch ids to their report counts
	counts map[int]int
	// completed contains the set of confirmed batch ids
	completed map[int]struct{}
	// failed maps batch ids to failure reasons
	failed map[int]string
	// order preserves the sequence in which batches were started
	order []int
	// total is the number of batches in the run
	total int
}

// NewState creates a State for a run of total batches.
func NewState(total int) *State {
	return &State{
		active:    make(map[int]string),
		counts:    make(map[int]int),
		completed: make(map[int]struct{}),
		failed:    make(map[int]string),
		total:     total,
	}
}

// Start marks a batch as active.
func (s *State) Start(batchID, reportCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.active[batchID]; !exists {
		s.order = append(s.order, batchID)
	}
	s.active[batchID] = "processing"
	s.counts[batchID] = reportCount
}

// SetStage updates what an active batch is doing.
func (s *State) SetStage(batchID int, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.active[batchID]; exists {
		s.active[batchID] = stage
	}
}

// Complete marks a batch as confirmed.
func (s *State) Complete(batchID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, batchID)
	s.completed[batchID] = struct{}{}
}

// Fail marks a batch as failed with a reason.
func (s *State) Fail(batchID int, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, batchID)
	s.failed[batchID] = reason
}

// CompletedCount returns the number of confirmed batches.
func (s *State) CompletedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed)
}

// Lines renders one display line per started batch, using frame as the
// spinner glyph for active batches. Lines are padded to equal width so
// area redraws do not leave trailing characters.
func (s *State) Lines(frame string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, len(s.order))
	max := 0
	for _, id := range s.order {
		var line string
		if stage, ok := s.active[id]; ok {
			line = fmt.Sprintf("%s batch %d/%d %s (%d reports)", frame, id, s.total, stage, s.counts[id])
		} else if _, ok := s.completed[id]; ok {
			line = fmt.Sprintf("✓ batch %d/%d confirmed", id, s.total)
		} else if reason, ok := s.failed[id]; ok {
			line = fmt.Sprintf("✗ batch %d/%d failed: %s", id, s.total, reason)
		} else {
			continue
		}
		if len(line) > max {
			max = len(line)
		}
		lines = append(lines, line)
	}
	for i := range lines {
		if pad := max - len(lines[i]); pad > 0 {
			lines[i] += strings.Repeat(" ", pad)
		}
	}
	return lines
}
