package deadline

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingKiller struct {
	calls atomic.Int32
	n     int
}

func (k *countingKiller) KillAll() int {
	k.calls.Add(1)
	return k.n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestArm_Unarmed(t *testing.T) {
	k := &countingKiller{}
	c := Arm(0, k)

	if c.State() != StateUnarmed {
		t.Errorf("expected StateUnarmed, got %v", c.State())
	}
	if c.Disarm() {
		t.Error("Disarm on an unarmed controller should return false")
	}
	if c.Fired() {
		t.Error("unarmed controller must not fire")
	}
}

func TestArm_Fires(t *testing.T) {
	k := &countingKiller{n: 4}
	var fired atomic.Int32
	c := Arm(20*time.Millisecond, k, WithFireCallback(func(killed int) {
		fired.Store(int32(killed))
	}))

	waitFor(t, func() bool { return fired.Load() != 0 })

	if !c.Fired() {
		t.Errorf("expected StateFired, got %v", c.State())
	}
	if k.calls.Load() != 1 {
		t.Errorf("expected exactly one KillAll, got %d", k.calls.Load())
	}
	if c.Killed() != 4 {
		t.Errorf("expected 4 killed, got %d", c.Killed())
	}
	if c.Disarm() {
		t.Error("Disarm after firing should return false")
	}
	if c.State() != StateFired {
		t.Errorf("state changed after late Disarm: %v", c.State())
	}
}

func TestDisarm_BeforeExpiry(t *testing.T) {
	k := &countingKiller{}
	c := Arm(50*time.Millisecond, k)

	if !c.Disarm() {
		t.Fatal("expected Disarm to succeed")
	}
	if c.State() != StateDisarmed {
		t.Errorf("expected StateDisarmed, got %v", c.State())
	}

	time.Sleep(100 * time.Millisecond)

	if c.Fired() || k.calls.Load() != 0 {
		t.Error("disarmed controller must never fire")
	}
	if c.Disarm() {
		t.Error("second Disarm should return false")
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateUnarmed:  "unarmed",
		StateArmed:    "armed",
		StateDisarmed: "disarmed",
		StateFired:    "fired",
		State(7):      "unknown(7)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestTimeout(t *testing.T) {
	c := Arm(time.Hour, &countingKiller{})
	defer c.Disarm()
	if c.Timeout() != time.Hour {
		t.Errorf("expected 1h, got %v", c.Timeout())
	}
}
