/*
Package database manages the process-wide MongoDB connection.

A Manager makes connection attempts through a Dialer and schedules follow-up
attempts through a resilience.Scheduler:

  - a failed attempt is retried after RetryDelay (2s) until MaxRetries (3)
    consecutive failures have been seen, after which the manager is Failed
  - a successful attempt resets the retry count
  - a lost connection schedules a reconnect after ReconnectDelay (5s), unless
    the retry budget is already spent

States move Disconnected -> Connecting -> Connected, Connecting -> Failed,
and Connected -> Disconnected -> Connecting on reconnect. Failed is terminal
for automatic behaviour; only an explicit Connect leaves it.

# Usage

	dialer := database.NewMongoDialer("students", 5*time.Second)
	manager := database.NewManager(database.Settings{URI: uri}, dialer,
		resilience.NewTimerScheduler(), logger).WithMetrics(metrics)

	go manager.Connect(ctx)

	conn, err := manager.Wait(ctx)
*/
package database
