package clock

import (
	"testing"
	"time"
)

func TestManualSleepUntilAdvances(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualAt(start)

	c.SleepUntil(start.Add(125 * time.Microsecond))
	if got := c.Now().Sub(start); got != 125*time.Microsecond {
		t.Errorf("Expected clock at +125µs, got %v", got)
	}

	// A deadline in the past must not move the clock backwards
	c.SleepUntil(start)
	if got := c.Now().Sub(start); got != 125*time.Microsecond {
		t.Errorf("Clock moved on past deadline: %v", got)
	}
}

func TestManualAdvanceAndSleep(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualAt(start)

	c.Advance(time.Second)
	c.Sleep(50 * time.Millisecond)

	if got := c.Now().Sub(start); got != 1050*time.Millisecond {
		t.Errorf("Expected +1.05s, got %v", got)
	}

	c.Set(start)
	if !c.Now().Equal(start) {
		t.Errorf("Set did not reset clock")
	}
}

func TestRealSleepUntilWaits(t *testing.T) {
	c := NewReal()
	begin := time.Now()
	deadline := begin.Add(3 * time.Millisecond)

	c.SleepUntil(deadline)

	if time.Now().Before(deadline) {
		t.Errorf("SleepUntil returned before deadline")
	}
}

func TestRealSleepUntilPastDeadline(t *testing.T) {
	c := NewReal()
	begin := time.Now()

	c.SleepUntil(begin.Add(-time.Second))

	if elapsed := time.Since(begin); elapsed > 100*time.Millisecond {
		t.Errorf("SleepUntil on past deadline took %v", elapsed)
	}
}
