package syncengine

import "github.com/google/uuid"

// Phase names a state in the sync state machine (spec §4.6).
type Phase int

const (
	Idle Phase = iota
	Pulling
	Merging
	Downloading
	Uploading
	Pushing
	Finalizing
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Pulling:
		return "Pulling"
	case Merging:
		return "Merging"
	case Downloading:
		return "Downloading"
	case Uploading:
		return "Uploading"
	case Pushing:
		return "Pushing"
	case Finalizing:
		return "Finalizing"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ProgressEvent is delivered on every phase transition and on every
// per-file unit of work within a phase.
type ProgressEvent struct {
	Phase     Phase
	Completed int
	Total     int
	CurrentID *uuid.UUID
}

// ProgressFunc receives ProgressEvents. Callers that don't need progress
// reporting may leave Options.Progress nil.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) transition(phase Phase) {
	if f != nil {
		f(ProgressEvent{Phase: phase})
	}
}

func (f ProgressFunc) file(phase Phase, completed, total int, id uuid.UUID) {
	if f != nil {
		f(ProgressEvent{Phase: phase, Completed: completed, Total: total, CurrentID: &id})
	}
}
