package clock_test

import (
	"testing"
	"time"

	"github.com/cloud-shuttle/go-fsm/clock"
)

func TestAdjustableClock(t *testing.T) {
	c := clock.Make()

	before := time.Now()
	c.Advance(time.Hour)
	if got := c.Now(); got.Sub(before) < time.Hour {
		t.Fatalf("expected Now to move at least an hour forward, got %s", got.Sub(before))
	}

	c.Reset()
	if got := c.Now(); got.Sub(time.Now()) > time.Minute {
		t.Fatalf("expected Reset to drop the offset, got %s ahead", got.Sub(time.Now()))
	}
}

func TestFixedClock(t *testing.T) {
	origin := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := clock.Fixed(origin)

	if !c.Now().Equal(origin) {
		t.Fatalf("expected %s, got %s", origin, c.Now())
	}

	c.Advance(90 * time.Second)
	if want := origin.Add(90 * time.Second); !c.Now().Equal(want) {
		t.Fatalf("expected %s, got %s", want, c.Now())
	}

	c.Reset()
	if !c.Now().Equal(origin) {
		t.Fatalf("expected Reset to return to %s, got %s", origin, c.Now())
	}
}
