package indexsync

import "github.com/kailas-cloud/vecsync/internal/metrics"

// State is a sync run stage.
type State string

// Sync run states. Failed is reachable from EnsuringIndex, Populating and Deleting.
const (
	StateIdle          State = "idle"
	StateEnsuringIndex State = "ensuring_index"
	StatePopulating    State = "populating"
	StateDeleting      State = "deleting"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

var allStates = []State{StateIdle, StateEnsuringIndex, StatePopulating, StateDeleting, StateDone, StateFailed}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

func canTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateEnsuringIndex
	case StateEnsuringIndex:
		return to == StatePopulating || to == StateFailed
	case StatePopulating:
		return to == StateDeleting || to == StateFailed
	case StateDeleting:
		return to == StateDone || to == StateFailed
	default:
		return false
	}
}

func publishState(current State) {
	for _, s := range allStates {
		v := 0.0
		if s == current {
			v = 1
		}
		metrics.SyncState.WithLabelValues(string(s)).Set(v)
	}
}
