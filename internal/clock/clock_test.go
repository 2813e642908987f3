package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceFiresInOrder(t *testing.T) {
	fake := NewFake()

	var fired []string
	fake.AfterFunc(3*time.Second, func() { fired = append(fired, "second") })
	fake.AfterFunc(1*time.Second, func() { fired = append(fired, "first") })

	fake.Advance(2 * time.Second)
	if len(fired) != 1 || fired[0] != "first" {
		t.Fatalf("after 2s fired = %v, want [first]", fired)
	}

	fake.Advance(2 * time.Second)
	if len(fired) != 2 || fired[1] != "second" {
		t.Fatalf("after 4s fired = %v, want [first second]", fired)
	}
}

func TestFakeAfterChannel(t *testing.T) {
	fake := NewFake()
	ch := fake.After(5 * time.Second)

	select {
	case <-ch:
		t.Fatal("After channel fired before advancing")
	default:
	}

	fake.Advance(5 * time.Second)

	select {
	case <-ch:
	default:
		t.Fatal("After channel did not fire at due time")
	}
}

func TestFakeStopPreventsFiring(t *testing.T) {
	fake := NewFake()

	fired := false
	timer := fake.AfterFunc(time.Second, func() { fired = true })

	if !timer.Stop() {
		t.Error("Stop() = false, want true for pending timer")
	}

	fake.Advance(2 * time.Second)
	if fired {
		t.Error("stopped timer fired")
	}
	if timer.Stop() {
		t.Error("Stop() = true on already stopped timer")
	}
}

func TestFakeChainedCallbacksWithinWindow(t *testing.T) {
	fake := NewFake()

	var fired []string
	fake.AfterFunc(time.Second, func() {
		fired = append(fired, "outer")
		fake.AfterFunc(time.Second, func() { fired = append(fired, "inner") })
	})

	fake.Advance(3 * time.Second)
	if len(fired) != 2 || fired[0] != "outer" || fired[1] != "inner" {
		t.Fatalf("fired = %v, want [outer inner]", fired)
	}
}

func TestFakeNowAdvances(t *testing.T) {
	fake := NewFake()
	start := fake.Now()
	fake.Advance(90 * time.Second)
	if got := fake.Now().Sub(start); got != 90*time.Second {
		t.Errorf("Now advanced by %v, want 90s", got)
	}
}
