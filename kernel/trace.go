package kernel

import (
	"fmt"
	"io"
)

// SetTrace enables or disables the formatted trace sink.
func (k *Kernel) SetTrace(on bool) { k.traceOn = on }

// TraceEnabled reports whether tracing is currently on.
func (k *Kernel) TraceEnabled() bool { return k.traceOn }

// SetSendTo sets the writer trace lines are written to. A nil sink
// disables output even if tracing is on.
func (k *Kernel) SetSendTo(sink io.Writer) { k.traceSink = sink }

// SendTo returns the current trace sink.
func (k *Kernel) SendTo() io.Writer { return k.traceSink }

// trace formats a message in the standard trace-line format and writes
// it to the sink, when tracing is on and a sink is set. Failures writing
// the trace are not reportable errors (the trace is a diagnostic side
// channel, not part of the kernel's contract) and are silently dropped.
func (k *Kernel) trace(format string, args ...any) {
	if !k.traceOn || k.traceSink == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(k.traceSink, "At time %12.3f -- %s\n", k.clock, msg)
}
