// Package process supervises the worker processes of one fan-out round.
//
// # Supervisor
//
// A Supervisor is created with a fixed capacity, one slot per worker:
//
//	sup := process.NewSupervisor(workers)
//	defer sup.Shutdown(time.Second)
//
//	for i := 0; i < workers; i++ {
//	    if _, err := sup.Start(i, "worker", buildCmd(i)); err != nil {
//	        sup.KillAll()
//	        return err
//	    }
//	}
//
//	if err := sup.Reap(ctx); err != nil {
//	    sup.KillAll()
//	}
//
// # Reaping
//
// Reap polls instead of blocking in a wait call, so a deadline or a
// cancelled context is noticed within one poll interval.
//
// # Killing
//
// KillAll sends SIGKILL to every recorded live child. It reads the slot
// table without locking and is meant to be called from a timer callback.
//
// # Thread Safety
//
// Both Supervisor and Process are safe for concurrent use.
package process
