package kernel

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ReservationResult is the outcome of Request or Preempt.
type ReservationResult int

const (
	// Reserved means the caller now holds a server.
	Reserved ReservationResult = iota
	// Queued means the caller was placed on the facility's waiting queue.
	Queued
)

func (r ReservationResult) String() string {
	if r == Reserved {
		return "RESERVED"
	}
	return "QUEUED"
}

// preemptedResumeEpsilon is a strictly positive residual time substituted
// when a preempted victim's event would otherwise fire at exactly the
// current clock. It is load-bearing for queue placement ordering, where
// remainingTime > 0 is what marks a parked record as a preempted resume
// rather than a fresh blocked request; it must stay strictly greater
// than zero, not necessarily this exact magnitude.
const preemptedResumeEpsilon = 1e-99

// FacilityID identifies a facility created by Kernel.Facility.
type FacilityID int

// facilityServer is one unit of a facility's server pool.
type facilityServer struct {
	busyToken     Token
	busyPriority  int
	busyStart     float64
	releaseCount  int
	totalBusyTime float64
}

func (s *facilityServer) idle() bool { return s.busyToken == nil }

// facility is a named bundle of N servers with a priority-ordered
// waiting queue and time-weighted queue statistics.
type facility struct {
	name    string
	servers []*facilityServer

	busyCount int

	queueHead *eventRecord
	queueLen  int

	queueExitCount int
	preemptCount   int

	lastChangeTime    float64
	totalQueueingTime float64
}

// Facility creates a named resource of N servers and registers it with
// the kernel. N must be >= 1.
func (k *Kernel) Facility(name string, n int) (FacilityID, error) {
	if n <= 0 {
		return 0, fmt.Errorf("facility %q: N must be >= 1, got %d: %w", name, n, ErrInvalidArgument)
	}
	servers := make([]*facilityServer, n)
	for i := range servers {
		servers[i] = &facilityServer{}
	}
	f := &facility{name: name, servers: servers, lastChangeTime: k.clock}
	id := FacilityID(len(k.facilityOrder))
	k.facilities[id] = f
	k.facilityOrder = append(k.facilityOrder, id)
	return id, nil
}

// FName returns the name a facility was created with.
func (k *Kernel) FName(f FacilityID) (string, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return "", err
	}
	return fac.name, nil
}

func (k *Kernel) mustFacility(f FacilityID) (*facility, error) {
	fac, ok := k.facilities[f]
	if !ok {
		return nil, fmt.Errorf("unknown facility %v: %w", f, ErrInvalidArgument)
	}
	return fac, nil
}

// enqueue inserts r into fac's waiting queue priority-descending; within
// a priority class, a preempted resume (remainingTime > 0) goes ahead of
// non-preempted peers.
func (fac *facility) enqueue(clock float64, r *eventRecord) {
	var prev *eventRecord
	cur := fac.queueHead
	for cur != nil {
		if cur.priority < r.priority || (cur.priority == r.priority && r.remainingTime > 0) {
			break
		}
		prev, cur = cur, cur.next
	}
	r.next = cur
	if prev == nil {
		fac.queueHead = r
	} else {
		prev.next = r
	}

	fac.totalQueueingTime += float64(fac.queueLen) * (clock - fac.lastChangeTime)
	fac.queueLen++
	fac.lastChangeTime = clock
}

// dequeue detaches and returns the head of fac's waiting queue, updating
// time-weighted bookkeeping. Caller must check queueLen > 0 first.
func (fac *facility) dequeue(clock float64) *eventRecord {
	r := fac.queueHead
	fac.queueHead = r.next
	r.next = nil

	fac.totalQueueingTime += float64(fac.queueLen) * (clock - fac.lastChangeTime)
	fac.queueLen--
	fac.queueExitCount++
	fac.lastChangeTime = clock
	return r
}

func (fac *facility) firstIdleIndex() int {
	for i, s := range fac.servers {
		if s.idle() {
			return i
		}
	}
	return -1
}

func (fac *facility) lowestPriorityIndex() int {
	lowest := 0
	for i, s := range fac.servers {
		if s.busyPriority < fac.servers[lowest].busyPriority {
			lowest = i
		}
	}
	return lowest
}

func (fac *facility) reserve(idx int, token Token, priority int, clock float64) {
	s := fac.servers[idx]
	s.busyToken = token
	s.busyPriority = priority
	s.busyStart = clock
	fac.busyCount++
}

// Request attempts a non-preemptive reservation of a server on f for
// token at priority. If all servers are busy, the caller is queued; the
// queued record carries the kernel's lastDispatchedEventCode so that,
// once dequeued by a later Release, the user model is re-woken on the
// same event code to retry Request.
func (k *Kernel) Request(f FacilityID, token Token, priority int) (ReservationResult, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	if tokenIsNull(token) {
		return 0, fmt.Errorf("request: nil token: %w", ErrInvalidArgument)
	}

	if idx := fac.firstIdleIndex(); idx >= 0 {
		fac.reserve(idx, token, priority, k.clock)
		k.log().WithFields(logrus.Fields{"facility": fac.name, "token": token, "inq": fac.queueLen}).Debug("request reserved")
		k.trace("REQUEST FACILITY %s FOR TOKEN %v:  RESERVED", fac.name, token)
		return Reserved, nil
	}

	r := k.acquire()
	r.eventCode = k.lastDispatchedEventCode
	r.token = token
	r.remainingTime = 0
	r.priority = priority
	fac.enqueue(k.clock, r)
	k.log().WithFields(logrus.Fields{"facility": fac.name, "token": token, "inq": fac.queueLen}).Debug("request queued")
	k.trace("REQUEST FACILITY %s FOR TOKEN %v:  QUEUED  (inq = %d)", fac.name, token, fac.queueLen)
	return Queued, nil
}

// Preempt attempts a priority reservation of a server on f for token at
// priority. If a server is idle it is reserved immediately. Otherwise the
// server with the lowest busyPriority is compared against priority: if
// priority is not strictly greater, the caller is queued (not preempted);
// otherwise the low-priority holder is evicted, its pending event parked
// on the queue with its residual time saved, and the server reassigned
// to the caller.
func (k *Kernel) Preempt(f FacilityID, token Token, priority int) (ReservationResult, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	if tokenIsNull(token) {
		return 0, fmt.Errorf("preempt: nil token: %w", ErrInvalidArgument)
	}

	if idx := fac.firstIdleIndex(); idx >= 0 {
		fac.reserve(idx, token, priority, k.clock)
		k.trace("PREEMPT FACILITY %s FOR TOKEN %v:  RESERVED", fac.name, token)
		return Reserved, nil
	}

	victimIdx := fac.lowestPriorityIndex()
	victim := fac.servers[victimIdx]
	if priority <= victim.busyPriority {
		r := k.acquire()
		r.eventCode = k.lastDispatchedEventCode
		r.token = token
		r.remainingTime = 0
		r.priority = priority
		fac.enqueue(k.clock, r)
		k.trace("PREEMPT FACILITY %s FOR TOKEN %v:  QUEUED  (inq = %d)", fac.name, token, fac.queueLen)
		return Queued, nil
	}

	t0, p0 := victim.busyToken, victim.busyPriority
	ev := k.suspend(t0)
	te := ev.triggerTime - k.clock
	if te == 0 {
		te = preemptedResumeEpsilon
	}
	evCode := ev.eventCode
	k.release(ev)

	parked := k.acquire()
	parked.eventCode = evCode
	parked.token = t0
	parked.remainingTime = te
	parked.priority = p0
	fac.enqueue(k.clock, parked)

	victim.releaseCount++
	victim.totalBusyTime += k.clock - victim.busyStart
	fac.busyCount--
	fac.preemptCount++

	k.log().WithFields(logrus.Fields{"facility": fac.name, "victim": t0, "by": token, "residual": te}).Debug("preempted holder")
	k.trace("PREEMPT FACILITY %s FOR TOKEN %v:  INTERRUPT", fac.name, t0)

	fac.reserve(victimIdx, token, priority, k.clock)
	k.trace("REQUEST FACILITY %s FOR TOKEN %v:  RESERVED", fac.name, token)
	return Reserved, nil
}

// Release frees the server on f held by token. If the waiting queue is
// non-empty, its head is woken: a blocked (never-held-the-server) request
// is re-injected at the head of the event list to fire this instant, so
// the user's model re-invokes Request on the next Cause; a preempted
// resume instead has the just-freed server transferred to it directly and
// a fresh event scheduled for its saved residual time.
func (k *Kernel) Release(f FacilityID, token Token) error {
	fac, err := k.mustFacility(f)
	if err != nil {
		return err
	}

	var v *facilityServer
	var vIdx int
	for i, s := range fac.servers {
		if s.busyToken == token {
			v, vIdx = s, i
			break
		}
	}
	if v == nil {
		return fmt.Errorf("release: facility %q: token %v holds no reservation: %w", fac.name, token, ErrInvalidState)
	}

	v.busyToken = nil
	v.releaseCount++
	v.totalBusyTime += k.clock - v.busyStart
	fac.busyCount--
	k.log().WithFields(logrus.Fields{"facility": fac.name, "token": token, "inq": fac.queueLen}).Debug("released server")
	k.trace("RELEASE FACILITY %s FOR TOKEN %v", fac.name, token)

	if fac.queueLen == 0 {
		return nil
	}

	r := fac.dequeue(k.clock)
	if r.remainingTime == 0 {
		r.triggerTime = k.clock
		k.prependEvent(r)
		k.trace("DEQUEUE FACILITY %s FOR TOKEN %v", fac.name, r.token)
		return nil
	}

	fac.reserve(vIdx, r.token, r.priority, k.clock)
	resumeCode, resumeToken, remaining := r.eventCode, r.token, r.remainingTime
	k.release(r)
	if err := k.Schedule(resumeCode, remaining, resumeToken); err != nil {
		panic(fmt.Sprintf("kernel: resume reschedule: %v", err))
	}
	k.trace("RESUME FACILITY %s FOR TOKEN %v", fac.name, resumeToken)
	return nil
}

// Status reports whether every server on f is busy.
func (k *Kernel) Status(f FacilityID) (bool, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return false, err
	}
	return fac.busyCount == len(fac.servers), nil
}

// Inq returns the current length of f's waiting queue.
func (k *Kernel) Inq(f FacilityID) (int, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	return fac.queueLen, nil
}

func (k *Kernel) interval() float64 {
	return k.clock - k.intervalStart
}

// U returns f's utilization: the sum of per-server busy fractions over
// the measurement interval since the last Reset. May reach len(servers).
func (k *Kernel) U(f FacilityID) (float64, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	t := k.interval()
	if t <= 0 {
		return 0, nil
	}
	var busy float64
	for _, s := range fac.servers {
		busy += s.totalBusyTime
	}
	return busy / t, nil
}

// B returns f's mean busy period: total busy time divided by total
// release count, or just total busy time if there have been no releases.
func (k *Kernel) B(f FacilityID) (float64, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	var busy float64
	var releases int
	for _, s := range fac.servers {
		busy += s.totalBusyTime
		releases += s.releaseCount
	}
	if releases > 0 {
		return busy / float64(releases), nil
	}
	return busy, nil
}

// Lq returns f's time-weighted mean queue length. It does not include
// the in-flight interval since the last queue change, so it is exact
// only when queried immediately after an enqueue/dequeue. Use
// LqCorrected for a query-time-accurate figure.
func (k *Kernel) Lq(f FacilityID) (float64, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	t := k.interval()
	if t <= 0 {
		return 0, nil
	}
	return fac.totalQueueingTime / t, nil
}

// LqCorrected is Lq with the tail interval since the last queue change
// folded in, giving an exact figure at any query time rather than only
// immediately after a queue change.
func (k *Kernel) LqCorrected(f FacilityID) (float64, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	t := k.interval()
	if t <= 0 {
		return 0, nil
	}
	tail := float64(fac.queueLen) * (k.clock - fac.lastChangeTime)
	return (fac.totalQueueingTime + tail) / t, nil
}

// QueueExitCount returns the number of records that have been dequeued
// from f's waiting queue since the facility was created or since the
// last Reset, whichever is later.
func (k *Kernel) QueueExitCount(f FacilityID) (int, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	return fac.queueExitCount, nil
}

// PreemptCount returns the number of times f has preempted a holder.
func (k *Kernel) PreemptCount(f FacilityID) (int, error) {
	fac, err := k.mustFacility(f)
	if err != nil {
		return 0, err
	}
	return fac.preemptCount, nil
}
