// Package sim provides the discrete-event kernel and entities of an assembly line.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - engine.go: the clock, the event heap and the Run loop
//   - buffer.go: bounded FIFO stores with suspending Put/Get requests
//   - inspector.go, workstation.go: the two entity state machines
//
// # Architecture
//
// A Line wires one Engine, its Buffers and its entities from a Topology.
// Entities are Processes: the Engine resumes them when a scheduled delay
// elapses or a Buffer request they were waiting on commits. Nothing is shared
// between Lines, so replications may run concurrently.
//
// Related packages:
//   - sim/stats/: per-run summary rows and cross-replication reports
//   - sim/replication/: seeded, optionally parallel batches of replications
//   - sim/trace/: routing decision recording
//
// # Key Interfaces
//
//   - Process: anything the Engine can resume
//   - RoutingPolicy: where an inspected unit goes (priority, random, first-match)
package sim
