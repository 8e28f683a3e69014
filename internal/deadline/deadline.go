// Package deadline enforces a wall-clock limit on a fan-out round.
//
// A Controller is armed before dispatch. If it expires before Disarm is
// called, it records that it fired and kills every outstanding worker
// through its Killer. Disarm and expiry race through a single atomic state
// cell, so exactly one of them wins.
package deadline

import (
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the controller's position in its one-shot lifecycle.
type State int32

const (
	// StateUnarmed means no deadline was configured.
	StateUnarmed State = iota
	// StateArmed means the timer is running.
	StateArmed
	// StateDisarmed means the round finished before the deadline.
	StateDisarmed
	// StateFired means the deadline expired and workers were killed.
	StateFired
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnarmed:
		return "unarmed"
	case StateArmed:
		return "armed"
	case StateDisarmed:
		return "disarmed"
	case StateFired:
		return "fired"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Killer forcibly terminates every outstanding worker and reports how many
// it signalled.
type Killer interface {
	KillAll() int
}

// Controller is a one-shot deadline.
type Controller struct {
	timeout time.Duration
	killer  Killer
	timer   *time.Timer
	state   atomic.Int32
	killed  atomic.Int32
	onFire  func(killed int)
	logger  *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFireCallback sets a function called after the deadline has fired and
// the kill requests were sent.
func WithFireCallback(fn func(killed int)) Option {
	return func(c *Controller) {
		c.onFire = fn
	}
}

// Arm starts a deadline of timeout. A non-positive timeout returns an
// unarmed controller that never fires.
func Arm(timeout time.Duration, killer Killer, opts ...Option) *Controller {
	c := &Controller{
		timeout: timeout,
		killer:  killer,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if timeout <= 0 {
		c.state.Store(int32(StateUnarmed))
		return c
	}

	c.state.Store(int32(StateArmed))
	c.timer = time.AfterFunc(timeout, c.fire)
	return c
}

// fire runs on the timer goroutine. It only flips the state and sends kill
// requests; it never waits on the workers.
func (c *Controller) fire() {
	if !c.state.CompareAndSwap(int32(StateArmed), int32(StateFired)) {
		return
	}

	n := c.killer.KillAll()
	c.killed.Store(int32(n))

	c.logger.Warn("deadline expired, killing workers",
		zap.Duration("timeout", c.timeout),
		zap.Int("killed", n),
	)

	if c.onFire != nil {
		c.onFire(n)
	}
}

// Disarm stops the deadline. It returns true if the controller moved from
// armed to disarmed, and false if it was unarmed or had already fired.
func (c *Controller) Disarm() bool {
	if !c.state.CompareAndSwap(int32(StateArmed), int32(StateDisarmed)) {
		return false
	}
	c.timer.Stop()
	return true
}

// Fired reports whether the deadline expired.
func (c *Controller) Fired() bool {
	return c.State() == StateFired
}

// State returns the current state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Killed returns how many workers the expiry signalled.
func (c *Controller) Killed() int {
	return int(c.killed.Load())
}

// Timeout returns the configured timeout.
func (c *Controller) Timeout() time.Duration {
	return c.timeout
}
