package clock

import (
	"testing"
	"time"
)

func Test_Fake_SetAndAdvance(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local)
	c := NewFake(start)

	if got := c.Now(); !got.Equal(start) {
		t.Fatalf("Now() = %v, want %v", got, start)
	}

	c.Advance(90 * time.Minute)
	if got, want := c.Now(), start.Add(90*time.Minute); !got.Equal(want) {
		t.Errorf("after Advance, Now() = %v, want %v", got, want)
	}

	earlier := start.Add(-24 * time.Hour)
	c.Set(earlier)
	if got := c.Now(); !got.Equal(earlier) {
		t.Errorf("after Set, Now() = %v, want %v", got, earlier)
	}
}

func Test_Real_ImplementsClock(t *testing.T) {
	t.Parallel()
	var c Clock = Real{}
	if c.Now().IsZero() {
		t.Error("Real.Now() returned the zero time")
	}
}
