// Package clock implements the cooperative tick scheduler.
//
// A Clock advances every registered Temporal by a fixed quantum of simulated
// time, 1/rate seconds, once per firing. Firings happen either
// deterministically (TickOnce, Step, Run) or on a real-time driver started
// with Start, which fires every 1/rate seconds of wall-clock time.
//
// ORDERING:
//
// Temporals are ticked strictly in registration order within a firing, and
// everything runs on one goroutine. Effects of an earlier Temporal (a tank
// drained by the first engine) are visible to later ones in the same firing.
// Engines sharing a tank are therefore not given fair access under
// starvation; the first registered engine drains first.
//
// FAULTS:
//
// A Temporal returning an error does not stop the firing or the clock. The
// error is logged, attached to the Firing report, and the next Temporal runs.
// A permanently misconfigured Temporal produces the same fault every firing.
//
// STOPPING:
//
// Stop waits for the in-flight firing to finish. There is no mid-firing
// cancellation.
package clock
