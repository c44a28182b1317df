package tasks

import (
	"fmt"

	"github.com/desertthunder/chorus/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ScanPosts Phase = iota
	RefreshSnapshots
)

func (p Phase) String() string {
	switch p {
	case ScanPosts:
		return "scan_posts"
	case RefreshSnapshots:
		return "refresh_snapshots"
	default:
		return ""
	}
}

func scanningUpdate(provider models.Provider) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanPosts,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Scanning playlist posts (%s)...", provider),
	}
}

func refreshedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshSnapshots,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func refreshSkippedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshSnapshots,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] - %s (no connection)", step, total, name),
	}
}

func refreshFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshSnapshots,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
