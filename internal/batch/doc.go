// Package batch coordinates deferred, named-queue interrogation.
//
// A Manager owns the set of named queues. Enqueuing under a name without an
// active runner starts one; the runner drains a snapshot of the pending
// items, evaluates them FIFO under a single inference-gate acquisition, and
// writes each outcome into the ResultStore. Items arriving while a batch is
// running wait for the next drain cycle, so no in-flight batch grows
// unboundedly.
//
// The ResultStore doubles as the dedup index: a logical name is reserved
// with a pending entry before its item is enqueued, resubmissions of a
// completed content-hash name short-circuit to the stored result, and
// colliding plain names are suffixed #0, #1, ... with the smallest unused
// integer.
package batch
