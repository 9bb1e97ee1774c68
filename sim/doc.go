// Package sim provides the core discrete-event simulation kernel for simkern.
//
// # Reading Guide
//
// Start with these three files to understand the kernel:
//   - event.go: the one-shot Event lifecycle (pending → triggered → processed)
//   - environment.go: the clock, the schedule, and the step/run loop
//   - process.go: cooperative processes and the suspension/resumption protocol
//
// # Architecture
//
// The sim package holds the kernel; layers that consume the kernel live in
// sub-packages and never reach into its internals:
//   - sim/realtime/: wall-clock pacing wrapper around an Environment
//   - sim/trace/: delivery-trace recording for determinism audits
//   - sim/stats/: virtual-time sampling of introspection gauges
//
// Everything advances through a single schedule: a binary heap of
// (time, priority, sequence) entries. Exactly one process (or the
// environment's own bookkeeping) executes at any instant — concurrency
// among simulated processes is interleaving at discrete time points,
// never true parallelism. All randomness stays outside the kernel; it
// only ever consumes delays and amounts that callers computed.
//
// # Contention Primitives
//
// Resource, PriorityResource and PreemptiveResource gate access by a fixed
// capacity; Container exchanges a scalar level and Store exchanges discrete
// items, both with strict FIFO wait queues. AllOf and AnyOf aggregate a
// fixed set of events into a single composite event.
package sim
