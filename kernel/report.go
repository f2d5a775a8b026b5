package kernel

import (
	"fmt"
	"io"
)

// Report writes a fixed-column statistics table for every registered
// facility, in creation order, to w. It reads only the public
// accessors (Mname, Time, FName, Status, Inq, U, B, Lq, PreemptCount,
// QueueExitCount), never kernel internals, so reporting stays a consumer
// of the kernel's public surface rather than a privileged collaborator.
func (k *Kernel) Report(w io.Writer) error {
	fmt.Fprintf(w, "Simulation Report: %s\n", k.Mname())
	fmt.Fprintf(w, "Time: %.3f\n\n", k.Time())
	fmt.Fprintf(w, "%-16s %6s %8s %6s %8s %8s %8s %8s\n",
		"FACILITY", "FULL", "INQ", "PREEM", "QEXIT", "UTIL", "BUSY-T", "MEAN-Q")

	for _, id := range k.facilityOrder {
		name, _ := k.FName(id)
		status, _ := k.Status(id)
		inq, _ := k.Inq(id)
		util, _ := k.U(id)
		busy, _ := k.B(id)
		lq, _ := k.Lq(id)
		preempts, _ := k.PreemptCount(id)
		exits, _ := k.QueueExitCount(id)
		fmt.Fprintf(w, "%-16s %6v %8d %6d %8d %8.3f %8.3f %8.3f\n",
			name, status, inq, preempts, exits, util, busy, lq)
	}
	return nil
}
