package kernel

import "testing"

// S1 — FIFO scheduling at equal trigger times.
func TestSchedule_FIFOTiesAtEqualTime(t *testing.T) {
	// GIVEN three events scheduled with overlapping trigger times
	k, err := New("s1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	tokA, tokB, tokC := IntToken(1), IntToken(2), IntToken(3)
	if err := k.Schedule(1, 5, tokA); err != nil {
		t.Fatalf("schedule A: %v", err)
	}
	if err := k.Schedule(2, 3, tokB); err != nil {
		t.Fatalf("schedule B: %v", err)
	}
	if err := k.Schedule(3, 5, tokC); err != nil {
		t.Fatalf("schedule C: %v", err)
	}

	// WHEN causing events in sequence
	// THEN they fire in time order, with FIFO tiebreak at t=5
	code, tok, ok := k.Cause()
	if !ok || code != 2 || tok != tokB || k.Time() != 3 {
		t.Fatalf("1st cause: got (%v,%v,%v) at t=%v, want (2,B,true) at t=3", code, tok, ok, k.Time())
	}
	code, tok, ok = k.Cause()
	if !ok || code != 1 || tok != tokA || k.Time() != 5 {
		t.Fatalf("2nd cause: got (%v,%v,%v) at t=%v, want (1,A,true) at t=5", code, tok, ok, k.Time())
	}
	code, tok, ok = k.Cause()
	if !ok || code != 3 || tok != tokC || k.Time() != 5 {
		t.Fatalf("3rd cause: got (%v,%v,%v) at t=%v, want (3,C,true) at t=5", code, tok, ok, k.Time())
	}
	if _, _, ok = k.Cause(); ok {
		t.Fatalf("4th cause: expected none, event list should be empty")
	}
}

func TestCause_EmptyListReturnsNone(t *testing.T) {
	k, _ := New("empty")
	if _, _, ok := k.Cause(); ok {
		t.Fatalf("Cause on empty list: expected ok=false")
	}
}

func TestCause_ClockMonotonic(t *testing.T) {
	// GIVEN events scheduled out of order
	k, _ := New("monotonic")
	_ = k.Schedule(1, 8, IntToken(1))
	_ = k.Schedule(2, 2, IntToken(2))
	_ = k.Schedule(3, 5, IntToken(3))

	// WHEN causing them in sequence
	// THEN successive clock values never decrease
	var last float64
	for i := 0; i < 3; i++ {
		_, _, ok := k.Cause()
		if !ok {
			t.Fatalf("cause %d: expected an event", i)
		}
		if k.Time() < last {
			t.Fatalf("clock went backwards: %v < %v", k.Time(), last)
		}
		last = k.Time()
	}
}

func TestCancel_RemovesFirstMatchingEventCode(t *testing.T) {
	// GIVEN two scheduled events with the same code
	k, _ := New("cancel")
	tokA, tokB := IntToken(1), IntToken(2)
	_ = k.Schedule(1, 5, tokA)
	_ = k.Schedule(1, 10, tokB)

	// WHEN cancel is called for that code
	tok, ok := k.Cancel(1)

	// THEN the earliest matching record is removed and its token returned
	if !ok || tok != tokA {
		t.Fatalf("cancel: got (%v,%v), want (A,true)", tok, ok)
	}

	// AND a later cause returns the remaining event
	code, tok, ok := k.Cause()
	if !ok || code != 1 || tok != tokB {
		t.Fatalf("cause after cancel: got (%v,%v,%v), want (1,B,true)", code, tok, ok)
	}
}

func TestCancel_AbsentCodeReturnsNone(t *testing.T) {
	k, _ := New("cancel-absent")
	_ = k.Schedule(1, 5, IntToken(1))
	if _, ok := k.Cancel(99); ok {
		t.Fatalf("cancel: expected no match for unscheduled code")
	}
}

func TestUnschedule_RequiresBothCodeAndToken(t *testing.T) {
	// GIVEN two events with the same code but different tokens
	k, _ := New("unschedule")
	tokA, tokB := IntToken(1), IntToken(2)
	_ = k.Schedule(1, 5, tokA)
	_ = k.Schedule(1, 6, tokB)

	// WHEN unscheduling with the wrong token
	// THEN nothing is removed
	if k.Unschedule(1, IntToken(99)) {
		t.Fatalf("unschedule: should not match an unrelated token")
	}

	// WHEN unscheduling with the matching (code, token) pair
	// THEN exactly that record is removed
	if !k.Unschedule(1, tokA) {
		t.Fatalf("unschedule: expected a match for (1, A)")
	}
	code, tok, ok := k.Cause()
	if !ok || code != 1 || tok != tokB {
		t.Fatalf("cause after unschedule: got (%v,%v,%v), want (1,B,true)", code, tok, ok)
	}
}

func TestSchedule_RejectsNilTokenAndBadDelay(t *testing.T) {
	k, _ := New("bad-args")
	if err := k.Schedule(1, 5, nil); err == nil {
		t.Fatalf("schedule with nil token: expected an error")
	}
	if err := k.Schedule(1, -1, IntToken(1)); err == nil {
		t.Fatalf("schedule with negative delay: expected an error")
	}
}

func TestSuspend_PanicsOnMissingToken(t *testing.T) {
	k, _ := New("suspend-missing")
	defer func() {
		if recover() == nil {
			t.Fatalf("suspend: expected a panic for an unscheduled token")
		}
	}()
	k.suspend(IntToken(404))
}
