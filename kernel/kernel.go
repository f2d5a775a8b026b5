// Package kernel implements a discrete-event simulation kernel in the
// style of MacDougall's smpl: a time-ordered event list, multi-server
// facilities with priority queueing and preemption, and the
// time-weighted statistics bookkeeping coupled to facility state
// transitions.
//
// # Reading guide
//
//   - eventlist.go: the event list (Schedule/Cause/Cancel/Unschedule/suspend)
//   - facility.go: facilities, servers, and Request/Preempt/Release
//   - pool.go: the eventRecord free-list pool
//   - rng.go: the 7^5 mod (2^31-1) generator and its distributions
//   - trace.go: the formatted trace sink
//   - report.go: the textual statistics report
//
// A model using this package calls Init, creates facilities, schedules
// an initial event, then loops Cause/dispatch until it decides to stop.
package kernel

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Kernel owns the simulation clock, the event list, and the facility
// registry. A Kernel value is single-threaded and cooperative: callers
// must serialize their own calls. Independent Kernel instances share no
// state and may run concurrently.
type Kernel struct {
	modelName     string
	clock         float64
	intervalStart float64

	eventListHead *eventRecord
	pool          *eventRecord

	facilities    map[FacilityID]*facility
	facilityOrder []FacilityID

	lastDispatchedEventCode EventCode
	lastDispatchedToken     Token

	rng *RNG

	traceOn   bool
	traceSink io.Writer

	// logger carries structured operational detail distinct from the
	// user-facing trace sink above; nil-safe (see Kernel.log).
	logger *logrus.Entry
}

// New constructs a Kernel and calls Init(modelName) on it.
func New(modelName string) (*Kernel, error) {
	k := &Kernel{}
	if err := k.Init(modelName); err != nil {
		return nil, err
	}
	return k, nil
}

// Init resets the clock to 0, empties the event list and facility
// registry, selects the next of the 15 RNG seed streams (rotating), and
// records the model name. modelName must be non-empty.
func (k *Kernel) Init(modelName string) error {
	if modelName == "" {
		return fmt.Errorf("init: empty model name: %w", ErrInvalidArgument)
	}
	k.modelName = modelName
	k.clock = 0
	k.intervalStart = 0
	k.eventListHead = nil
	k.pool = nil
	k.facilities = make(map[FacilityID]*facility)
	k.facilityOrder = nil
	k.lastDispatchedEventCode = 0
	k.lastDispatchedToken = nil
	if k.rng == nil {
		k.rng = newRNG()
	}
	k.rng.rotate()
	if k.logger == nil {
		k.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return nil
}

// Reset zeros statistics accumulators and sets intervalStart to the
// current clock, leaving the event list and facility reservations
// intact.
func (k *Kernel) Reset() {
	k.intervalStart = k.clock
	for _, id := range k.facilityOrder {
		fac := k.facilities[id]
		fac.lastChangeTime = k.clock
		fac.totalQueueingTime = 0
		fac.queueExitCount = 0
		fac.preemptCount = 0
		for _, s := range fac.servers {
			s.releaseCount = 0
			s.totalBusyTime = 0
		}
	}
}

// Mname returns the model name passed to Init.
func (k *Kernel) Mname() string { return k.modelName }

// Rand returns the kernel's RNG stream.
func (k *Kernel) Rand() *RNG { return k.rng }

// WithLogger overrides the kernel's structured logger. Passing nil
// restores the default (logrus' standard logger).
func (k *Kernel) WithLogger(entry *logrus.Entry) {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	k.logger = entry
}

func (k *Kernel) log() *logrus.Entry {
	if k.logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return k.logger
}
