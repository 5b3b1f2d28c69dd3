// Package gpusim simulates a massively parallel compute device: workloads
// are decomposed into thread blocks, thread blocks are distributed across a
// fixed set of compute units, and each compute unit schedules its resident
// warps cycle by cycle. The simulation models occupancy limits, memory
// latency, and scheduling policy effects without executing any real
// instructions or touching real memory.
//
// A Device owns a Scheduler (workload-level ordering), a fixed slice of
// ComputeUnits (each with its own warp-level WarpScheduler), and a
// distributor goroutine that binds pending thread blocks from scheduled
// workloads onto compute units with spare occupancy. SubmitWorkload queues
// workloads with the device's Scheduler; Start launches one goroutine per
// compute unit plus the distributor; WaitForCompletion blocks until every
// submitted workload has finished; Stop halts all goroutines; Reset stops
// the device, zeroes every compute unit's counters and assigned blocks, and
// clears the PerformanceAnalyzer. Reset leaves the memory controller's
// counters and the scheduler's completed list as they are.
//
// Metrics are collected via a PerformanceAnalyzer that is fed by each
// ComputeUnit's atomic counters as workloads complete, and can be exported
// as CSV by the report subpackage.
package gpusim
