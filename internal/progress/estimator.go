// Package progress estimates completion percentage and remaining time for a
// device flow run from per-state weights and observed step durations.
package progress

import (
	"sync"
	"time"

	"github.com/AstroAir/github-cli/internal/deviceflow"
)

// historyLimit caps how many completed step durations feed the estimate.
const historyLimit = 10

// stepWeights distributes 100 points of progress across the flow states,
// proportional to how long each step typically takes relative to the others.
var stepWeights = map[deviceflow.FlowState]int{
	deviceflow.StateInitializing:   5,
	deviceflow.StateRequestingCode: 10,
	deviceflow.StateWaitingForUser: 20,
	deviceflow.StatePollingToken:   50,
	deviceflow.StateValidating:     10,
	deviceflow.StateComplete:       5,
}

// stepEstimates are the static duration guesses used before any history
// has accumulated.
var stepEstimates = map[deviceflow.FlowState]time.Duration{
	deviceflow.StateInitializing:   2 * time.Second,
	deviceflow.StateRequestingCode: 3 * time.Second,
	deviceflow.StateWaitingForUser: 60 * time.Second,
	deviceflow.StatePollingToken:   30 * time.Second,
	deviceflow.StateValidating:     5 * time.Second,
	deviceflow.StateComplete:       time.Second,
}

type stepRecord struct {
	state    deviceflow.FlowState
	duration time.Duration
}

// Estimator tracks flow state transitions and derives progress. Safe for
// concurrent use; it is typically fed from the flow's state observer.
type Estimator struct {
	mu        sync.Mutex
	now       func() time.Time
	current   deviceflow.FlowState
	currentAt time.Time
	started   bool
	failed    bool
	completed map[deviceflow.FlowState]bool
	history   []stepRecord
}

// NewEstimator creates an estimator with no observations.
func NewEstimator() *Estimator {
	return &Estimator{
		now:       time.Now,
		completed: make(map[deviceflow.FlowState]bool),
	}
}

// Observe records a transition into the given state. The duration of the
// step being left is added to the history. Repeated observations of the
// same state (the polling loop emits one per poll) do not restart the
// step clock.
func (e *Estimator) Observe(state deviceflow.FlowState) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !e.started || state != e.current {
		if e.started {
			e.finishStep(now)
		}
		e.currentAt = now
	}

	e.current = state
	e.started = true

	if state == deviceflow.StateComplete {
		e.completed[state] = true
	}
	if state == deviceflow.StateError {
		e.failed = true
	}
}

// finishStep closes out the current step. Caller holds the lock.
func (e *Estimator) finishStep(now time.Time) {
	e.completed[e.current] = true
	e.history = append(e.history, stepRecord{state: e.current, duration: now.Sub(e.currentAt)})
	if len(e.history) > historyLimit {
		e.history = e.history[len(e.history)-historyLimit:]
	}
}

// Percent returns overall completion as 0-100, the summed weight of the
// completed steps over the total.
func (e *Estimator) Percent() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := 0
	done := 0
	for state, weight := range stepWeights {
		total += weight
		if e.completed[state] {
			done += weight
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// Remaining estimates the time left. Completed steps contribute nothing;
// pending steps contribute their observed mean duration when history exists
// for them, otherwise the static estimate. Returns false once the flow has
// reached a terminal state.
func (e *Estimator) Remaining() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed || e.completed[deviceflow.StateComplete] {
		return 0, false
	}

	var remaining time.Duration
	for _, state := range deviceflow.FlowStates {
		if e.completed[state] {
			continue
		}
		remaining += e.estimateFor(state)
	}

	// Credit time already spent in the current step.
	if e.started && !e.current.Terminal() {
		elapsed := e.now().Sub(e.currentAt)
		if elapsed > 0 {
			if est := e.estimateFor(e.current); elapsed < est {
				remaining -= elapsed
			} else {
				remaining -= e.estimateFor(e.current)
			}
		}
	}

	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// estimateFor returns the mean observed duration for a state, falling back
// to the static estimate. Caller holds the lock.
func (e *Estimator) estimateFor(state deviceflow.FlowState) time.Duration {
	var sum time.Duration
	n := 0
	for _, rec := range e.history {
		if rec.state == state {
			sum += rec.duration
			n++
		}
	}
	if n > 0 {
		return sum / time.Duration(n)
	}
	return stepEstimates[state]
}

// CurrentState returns the most recently observed state.
func (e *Estimator) CurrentState() deviceflow.FlowState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}
