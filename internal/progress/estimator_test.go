package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AstroAir/github-cli/internal/deviceflow"
)

func testEstimator(base time.Time) (*Estimator, *time.Time) {
	clock := base
	e := NewEstimator()
	e.now = func() time.Time { return clock }
	return e, &clock
}

func TestWeightsSumToOneHundred(t *testing.T) {
	total := 0
	for _, w := range stepWeights {
		total += w
	}
	assert.Equal(t, 100, total)
}

func TestPercent_TracksCompletedWeight(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, clock := testEstimator(base)

	assert.Zero(t, e.Percent())

	e.Observe(deviceflow.StateInitializing)
	assert.Zero(t, e.Percent(), "entering a step does not complete it")

	*clock = clock.Add(time.Second)
	e.Observe(deviceflow.StateRequestingCode)
	assert.InDelta(t, 5.0, e.Percent(), 0.01)

	*clock = clock.Add(time.Second)
	e.Observe(deviceflow.StateWaitingForUser)
	assert.InDelta(t, 15.0, e.Percent(), 0.01)

	*clock = clock.Add(time.Second)
	e.Observe(deviceflow.StatePollingToken)
	assert.InDelta(t, 35.0, e.Percent(), 0.01)

	*clock = clock.Add(time.Second)
	e.Observe(deviceflow.StateValidating)
	assert.InDelta(t, 85.0, e.Percent(), 0.01)

	*clock = clock.Add(time.Second)
	e.Observe(deviceflow.StateComplete)
	assert.InDelta(t, 100.0, e.Percent(), 0.01)
}

func TestRemaining_StaticEstimatesBeforeHistory(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, _ := testEstimator(base)

	e.Observe(deviceflow.StateInitializing)
	remaining, ok := e.Remaining()
	require.True(t, ok)

	// 2 + 3 + 60 + 30 + 5 + 1 seconds, nothing completed yet.
	assert.Equal(t, 101*time.Second, remaining)
}

func TestRemaining_UsesObservedDurations(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, clock := testEstimator(base)

	// Initializing actually took 10s instead of the 2s static guess.
	e.Observe(deviceflow.StateInitializing)
	*clock = clock.Add(10 * time.Second)
	e.Observe(deviceflow.StateRequestingCode)

	remaining, ok := e.Remaining()
	require.True(t, ok)

	// Initializing is done and out of the sum: 3 + 60 + 30 + 5 + 1.
	assert.Equal(t, 99*time.Second, remaining)
}

func TestRemaining_CreditsTimeInCurrentStep(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, clock := testEstimator(base)

	e.Observe(deviceflow.StateInitializing)
	*clock = clock.Add(time.Second)
	e.Observe(deviceflow.StateRequestingCode)

	// One second into a step estimated at 3s.
	*clock = clock.Add(time.Second)
	remaining, ok := e.Remaining()
	require.True(t, ok)
	assert.Equal(t, 98*time.Second, remaining)
}

func TestObserve_SameStateKeepsStepClock(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, clock := testEstimator(base)

	// The polling loop reports PollingToken once per poll; the step clock
	// must keep running from the first observation.
	e.Observe(deviceflow.StatePollingToken)
	for i := 0; i < 3; i++ {
		*clock = clock.Add(5 * time.Second)
		e.Observe(deviceflow.StatePollingToken)
	}
	assert.Empty(t, e.history, "self edges must not complete the step")

	*clock = clock.Add(5 * time.Second)
	e.Observe(deviceflow.StateValidating)

	require.Len(t, e.history, 1)
	assert.Equal(t, deviceflow.StatePollingToken, e.history[0].state)
	assert.Equal(t, 20*time.Second, e.history[0].duration)
}

func TestRemaining_TerminalStatesReportNothing(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("complete", func(t *testing.T) {
		e, _ := testEstimator(base)
		e.Observe(deviceflow.StateComplete)
		_, ok := e.Remaining()
		assert.False(t, ok)
	})

	t.Run("error", func(t *testing.T) {
		e, _ := testEstimator(base)
		e.Observe(deviceflow.StateInitializing)
		e.Observe(deviceflow.StateError)
		_, ok := e.Remaining()
		assert.False(t, ok)
	})
}

func TestHistory_CappedAtTenEntries(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e, clock := testEstimator(base)

	states := []deviceflow.FlowState{deviceflow.StateInitializing, deviceflow.StateRequestingCode}
	for i := 0; i < 15; i++ {
		e.Observe(states[i%2])
		*clock = clock.Add(time.Second)
	}

	assert.LessOrEqual(t, len(e.history), historyLimit)
}

func TestCurrentState(t *testing.T) {
	e := NewEstimator()
	e.Observe(deviceflow.StatePollingToken)
	assert.Equal(t, deviceflow.StatePollingToken, e.CurrentState())
}
