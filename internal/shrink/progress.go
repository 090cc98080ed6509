package shrink

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	pageRangePattern = regexp.MustCompile(`(?i)processing pages (\d+) through (\d+)`)
	pageLinePattern  = regexp.MustCompile(`(?i)^page (\d+)$`)
)

// ProgressTracker infers page-processing progress from the free-text log
// lines Ghostscript emits. The interpreter has no structured progress API,
// so the two line shapes it prints while rendering are the only signal.
//
// One tracker belongs to exactly one in-flight job. TotalPages 0 means the
// page count has not been observed yet.
type ProgressTracker struct {
	mu          sync.Mutex
	currentPage int
	totalPages  int
	onUpdate    func(percent, current, total int)
}

// NewProgressTracker creates a tracker delivering updates to onUpdate.
// onUpdate may be nil when only the final state matters.
func NewProgressTracker(onUpdate func(percent, current, total int)) *ProgressTracker {
	return &ProgressTracker{onUpdate: onUpdate}
}

// ConsumeChunk splits a possibly multi-line log chunk and feeds each line to
// ConsumeLine independently.
func (t *ProgressTracker) ConsumeChunk(chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		t.ConsumeLine(line)
	}
}

// ConsumeLine processes one log line. Unrecognized lines are ignored.
func (t *ProgressTracker) ConsumeLine(line string) {
	line = strings.TrimSpace(line)

	if match := pageRangePattern.FindStringSubmatch(line); match != nil {
		start, err1 := strconv.Atoi(match[1])
		end, err2 := strconv.Atoi(match[2])
		if err1 == nil && err2 == nil && end >= start {
			total := end - start + 1
			t.mu.Lock()
			// An observed total never decreases: a range line supersedes
			// the provisional single-page estimate, not an earlier,
			// larger range
			if total > t.totalPages {
				t.totalPages = total
				t.notifyLocked()
			}
			t.mu.Unlock()
		}
		return
	}

	if match := pageLinePattern.FindStringSubmatch(line); match != nil {
		page, err := strconv.Atoi(match[1])
		if err != nil {
			return
		}
		t.mu.Lock()
		if page > t.currentPage {
			t.currentPage = page
			// Single "Page 1" with no range line yet: provisionally a
			// one-page document
			if t.totalPages == 0 && page == 1 {
				t.totalPages = 1
			}
			t.notifyLocked()
		}
		t.mu.Unlock()
	}
}

// Snapshot returns the current (percent, currentPage, totalPages), with
// totalPages 0 while still unknown.
func (t *ProgressTracker) Snapshot() (int, int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentLocked(), t.currentPage, t.totalPages
}

func (t *ProgressTracker) notifyLocked() {
	if t.onUpdate != nil {
		t.onUpdate(t.percentLocked(), t.currentPage, t.totalPages)
	}
}

// percentLocked caps the inferred percentage at 99: the full 100 is reserved
// for confirmed completion, never derived from log text.
func (t *ProgressTracker) percentLocked() int {
	if t.totalPages == 0 {
		return 0
	}

	percent := t.currentPage * 100 / t.totalPages
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}
	return percent
}
