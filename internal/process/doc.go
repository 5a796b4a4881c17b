// Package process provides generic lifecycle management for long-running
// components.
//
// A Manager wraps one RunFunc (a poll loop, a gateway session) and keeps
// it alive: failures are logged and the component is restarted after a
// configurable delay, up to the attempt limit. Clean shutdown goes through
// context cancellation via Stop.
//
// Example usage:
//
//	mgr := process.NewManager(process.Config{
//	    Name:               "poller",
//	    Run:                func(ctx context.Context) error { p.Run(ctx); return nil },
//	    RestartOnFailure:   true,
//	    RestartDelay:       5 * time.Second,
//	    MaxRestartAttempts: 10,
//	})
//
//	if err := mgr.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Stop(10 * time.Second)
package process
