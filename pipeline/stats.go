package pipeline

import "sync/atomic"

// Stats is a point-in-time snapshot of pipeline activity.
type Stats struct {
	// InFlight is the number of admitted frames whose callback has not fired.
	InFlight int
	// Ceiling is the admission limit.
	Ceiling int
	// Submitted counts frames that passed admission.
	Submitted uint64
	// Completed counts frames delivered with a result.
	Completed uint64
	// Failed counts frames delivered with an error, cancellations included.
	Failed uint64
	// Cancelled counts frames failed with scheduler.ErrStopped.
	Cancelled uint64
	// Rejected counts submissions refused with ErrBackpressure.
	Rejected uint64
	// Generation is the current effect generation.
	Generation uint64
	// Effect is the name of the effect loaded at the last load or unload.
	Effect string
}

type counters struct {
	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	cancelled atomic.Uint64
	rejected  atomic.Uint64
}
