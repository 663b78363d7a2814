/*
Package resilience provides delayed task scheduling for recovery loops.

# Overview

Components that retry after a failure (the database connection manager in
particular) never call time.Sleep or time.AfterFunc directly. They schedule
work through a Scheduler and keep the returned Task as a cancellation token.
Production code uses TimerScheduler; tests use resiliencetest.Scheduler and
advance virtual time explicitly.

# Usage

	group := resilience.NewGroup(resilience.NewTimerScheduler())

	// Retry in two seconds
	group.Schedule(2*time.Second, func() {
		manager.Connect(ctx)
	})

	// On shutdown
	group.CancelAll()

# Tasks

A Task is cancelled at most once. Cancel reports whether it stopped the
function from running; a task that already fired returns false.
*/
package resilience
