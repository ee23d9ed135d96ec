package run

import (
	"sync"
	"time"

	"runbox/internal/apperrors"
)

// runState holds the tracked state for a single run.
type runState struct {
	state      string
	exitCode   *int
	errMsg     string
	finishedAt time.Time
	logs       *LogBuffer
}

// stateRepo tracks run records with thread-safe access.
type stateRepo struct {
	mu   sync.RWMutex
	runs map[string]*runState
}

// newStateRepo creates a new state repository.
func newStateRepo() *stateRepo {
	return &stateRepo{
		runs: make(map[string]*runState),
	}
}

// reserve registers a new accepted run. Returns an error if the ID is taken.
func (r *stateRepo) reserve(runID string, logs *LogBuffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[runID]; exists {
		return apperrors.Conflict("run", runID, "run already exists")
	}
	r.runs[runID] = &runState{state: StateAccepted, logs: logs}
	return nil
}

// markRunning transitions a run to the running state.
func (r *stateRepo) markRunning(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rs, exists := r.runs[runID]; exists {
		rs.state = StateRunning
	}
}

// finish records the terminal state of a run.
func (r *stateRepo) finish(runID string, exitCode *int, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rs, exists := r.runs[runID]
	if !exists {
		return
	}
	if errMsg != "" {
		rs.state = StateFailed
	} else {
		rs.state = StateCompleted
	}
	rs.exitCode = exitCode
	rs.errMsg = errMsg
	rs.finishedAt = time.Now()
}

// status returns a point-in-time status snapshot for a run.
func (r *stateRepo) status(runID string) (*Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, exists := r.runs[runID]
	if !exists {
		return nil, false
	}
	return &Status{
		ID:       runID,
		State:    rs.state,
		ExitCode: rs.exitCode,
		Error:    rs.errMsg,
	}, true
}

// logsOf returns the log buffer for a run.
func (r *stateRepo) logsOf(runID string) (*LogBuffer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, exists := r.runs[runID]
	if !exists {
		return nil, false
	}
	return rs.logs, true
}

// list returns status snapshots for all runs.
func (r *stateRepo) list() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]Status, 0, len(r.runs))
	for id, rs := range r.runs {
		statuses = append(statuses, Status{
			ID:       id,
			State:    rs.state,
			ExitCode: rs.exitCode,
			Error:    rs.errMsg,
		})
	}
	return statuses
}

// release removes a run record. Returns whether it existed.
func (r *stateRepo) release(runID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.runs[runID]
	if exists {
		delete(r.runs, runID)
	}
	return exists
}

// expired returns the IDs of finished runs older than the retention period.
func (r *stateRepo) expired(retention time.Duration) []string {
	cutoff := time.Now().Add(-retention)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, rs := range r.runs {
		if rs.state != StateCompleted && rs.state != StateFailed {
			continue
		}
		if rs.finishedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}
