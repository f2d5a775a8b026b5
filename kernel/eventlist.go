package kernel

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// insertEventSorted inserts r into the event list ordered by triggerTime
// ascending, before the first record whose triggerTime is strictly
// greater than r's. Existing records at the same trigger time are left
// ahead of r, giving FIFO ordering within a time instant. The strict
// comparison is deliberate: it is what produces that FIFO ordering.
func (k *Kernel) insertEventSorted(r *eventRecord) {
	if k.eventListHead == nil || r.triggerTime < k.eventListHead.triggerTime {
		r.next = k.eventListHead
		k.eventListHead = r
		return
	}
	prev := k.eventListHead
	for prev.next != nil && prev.next.triggerTime <= r.triggerTime {
		prev = prev.next
	}
	r.next = prev.next
	prev.next = r
}

// prependEvent inserts r at the absolute head of the event list, ahead
// of every other record. Used only by Release to make a newly-woken
// blocked request fire before any other clock-simultaneous event; safe
// because the clock is monotonic, so every record already in the list
// has triggerTime >= clock == r.triggerTime.
func (k *Kernel) prependEvent(r *eventRecord) {
	r.next = k.eventListHead
	k.eventListHead = r
}

// Schedule places a new event on the event list to fire at clock+delay
// for token. delay must be finite and non-negative; token must not be nil.
func (k *Kernel) Schedule(eventCode EventCode, delay float64, token Token) error {
	if tokenIsNull(token) {
		return fmt.Errorf("schedule: nil token: %w", ErrInvalidArgument)
	}
	if math.IsNaN(delay) || math.IsInf(delay, 0) || delay < 0 {
		return fmt.Errorf("schedule: invalid delay %v: %w", delay, ErrInvalidArgument)
	}
	r := k.acquire()
	r.eventCode = eventCode
	r.token = token
	r.triggerTime = k.clock + delay
	r.remainingTime = 0
	k.insertEventSorted(r)
	k.log().WithFields(logrus.Fields{"event": eventCode, "token": token, "at": r.triggerTime}).Debug("scheduled event")
	k.trace("SCHEDULE EVENT %d FOR TOKEN %v", eventCode, token)
	return nil
}

// Cause dequeues the earliest pending event, advances the clock to its
// trigger time, and returns its (eventCode, token). ok is false when the
// event list is empty; the clock is left unchanged in that case.
func (k *Kernel) Cause() (eventCode EventCode, token Token, ok bool) {
	if k.eventListHead == nil {
		return 0, nil, false
	}
	r := k.eventListHead
	k.eventListHead = r.next
	k.clock = r.triggerTime
	eventCode, token = r.eventCode, r.token
	k.lastDispatchedEventCode = eventCode
	k.lastDispatchedToken = token
	k.release(r)
	k.log().WithFields(logrus.Fields{"event": eventCode, "token": token, "clock": k.clock}).Debug("dispatched event")
	k.trace("CAUSE EVENT %d FOR TOKEN %v", eventCode, token)
	return eventCode, token, true
}

// Cancel removes the first event list record whose eventCode matches,
// returning its token. ok is false if no such record exists.
func (k *Kernel) Cancel(eventCode EventCode) (token Token, ok bool) {
	var prev *eventRecord
	for r := k.eventListHead; r != nil; prev, r = r, r.next {
		if r.eventCode != eventCode {
			continue
		}
		if prev == nil {
			k.eventListHead = r.next
		} else {
			prev.next = r.next
		}
		token = r.token
		k.release(r)
		k.trace("CANCEL EVENT %d FOR TOKEN %v", eventCode, token)
		return token, true
	}
	return nil, false
}

// Unschedule removes the first event list record whose (eventCode, token)
// both match, reporting whether a record was removed.
func (k *Kernel) Unschedule(eventCode EventCode, token Token) bool {
	var prev *eventRecord
	for r := k.eventListHead; r != nil; prev, r = r, r.next {
		if r.eventCode != eventCode || r.token != token {
			continue
		}
		if prev == nil {
			k.eventListHead = r.next
		} else {
			prev.next = r.next
		}
		k.release(r)
		k.trace("CANCEL EVENT %d FOR TOKEN %v", eventCode, token)
		return true
	}
	return false
}

// Time returns the current simulation clock.
func (k *Kernel) Time() float64 {
	return k.clock
}

// suspend detaches and returns the first event list record matching
// token, for use by Preempt. A missing token is a programmer error (the
// caller is expected to know the victim holds a scheduled event) and
// panics rather than returning a reportable error.
func (k *Kernel) suspend(token Token) *eventRecord {
	var prev *eventRecord
	for r := k.eventListHead; r != nil; prev, r = r, r.next {
		if r.token != token {
			continue
		}
		if prev == nil {
			k.eventListHead = r.next
		} else {
			prev.next = r.next
		}
		r.next = nil
		return r
	}
	panic(fmt.Sprintf("kernel: suspend: no scheduled event for token %v", token))
}
