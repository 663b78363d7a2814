package resilience_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/CampusAPI/backend/internal/infrastructure/resilience/resiliencetest"
)

func TestTimerSchedulerRuns(t *testing.T) {
	s := resilience.NewTimerScheduler()

	done := make(chan struct{})
	s.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduled function did not run")
	}
}

func TestTimerSchedulerCancel(t *testing.T) {
	s := resilience.NewTimerScheduler()

	var ran atomic.Bool
	task := s.Schedule(50*time.Millisecond, func() { ran.Store(true) })

	assert.True(t, task.Cancel())
	assert.False(t, task.Cancel(), "second cancel is a no-op")

	time.Sleep(80 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestGroupCancelAll(t *testing.T) {
	fake := resiliencetest.New()
	group := resilience.NewGroup(fake)

	var runs int
	group.Schedule(time.Second, func() { runs++ })
	group.Schedule(2*time.Second, func() { runs++ })
	assert.Equal(t, 2, group.Pending())

	fake.Advance(time.Second)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, group.Pending())

	assert.Equal(t, 1, group.CancelAll())
	assert.Equal(t, 0, group.Pending())

	fake.Advance(time.Minute)
	assert.Equal(t, 1, runs)

	assert.Nil(t, group.Schedule(time.Second, func() { runs++ }), "closed group rejects tasks")
}

func TestManualSchedulerOrdering(t *testing.T) {
	fake := resiliencetest.New()

	var order []string
	fake.Schedule(5*time.Second, func() { order = append(order, "five") })
	fake.Schedule(2*time.Second, func() {
		order = append(order, "two")
		fake.Schedule(time.Second, func() { order = append(order, "three") })
	})

	ran := fake.Advance(3 * time.Second)
	require.Equal(t, 2, ran)
	assert.Equal(t, []string{"two", "three"}, order)
	assert.Equal(t, []time.Duration{5 * time.Second}, fake.Pending())

	assert.True(t, fake.RunNext())
	assert.False(t, fake.RunNext())
	assert.Equal(t, []string{"two", "three", "five"}, order)
	assert.Equal(t, []time.Duration{5 * time.Second, 2 * time.Second, time.Second}, fake.Delays())
}

func TestManualSchedulerCancel(t *testing.T) {
	fake := resiliencetest.New()

	ran := false
	task := fake.Schedule(time.Second, func() { ran = true })
	assert.True(t, task.Cancel())

	fake.Advance(time.Hour)
	assert.False(t, ran)
	assert.Empty(t, fake.Pending())
}
