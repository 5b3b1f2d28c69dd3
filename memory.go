package gpusim

import "sync/atomic"

// GlobalMemory is a latency-and-counter model of device global memory. No
// data is actually stored or moved; reads and writes only validate bounds
// and update counters.
type GlobalMemory struct {
	size int64

	accesses    atomic.Int64
	reads       atomic.Int64
	writes      atomic.Int64
	bytesRead   atomic.Int64
	bytesWriten atomic.Int64
}

// NewGlobalMemory returns a GlobalMemory region of the given size in bytes.
func NewGlobalMemory(size int64) *GlobalMemory {
	return &GlobalMemory{size: size}
}

// Read validates that address+bytes is within the region and, on success,
// increments the access, read, and bytes-read counters. It returns false
// without changing any counter if the access would be out of range.
func (m *GlobalMemory) Read(address, bytes int64) bool {
	if address < 0 || bytes < 0 || address+bytes > m.size {
		return false
	}
	m.accesses.Add(1)
	m.reads.Add(1)
	m.bytesRead.Add(bytes)
	return true
}

// Write validates that address+bytes is within the region and, on success,
// increments the access, write, and bytes-written counters.
func (m *GlobalMemory) Write(address, bytes int64) bool {
	if address < 0 || bytes < 0 || address+bytes > m.size {
		return false
	}
	m.accesses.Add(1)
	m.writes.Add(1)
	m.bytesWriten.Add(bytes)
	return true
}

func (m *GlobalMemory) Accesses() int64  { return m.accesses.Load() }
func (m *GlobalMemory) Reads() int64     { return m.reads.Load() }
func (m *GlobalMemory) Writes() int64    { return m.writes.Load() }
func (m *GlobalMemory) BytesRead() int64 { return m.bytesRead.Load() }
func (m *GlobalMemory) BytesWritten() int64 {
	return m.bytesWriten.Load()
}

// SharedMemory is the per-thread-block latency-and-counter region. Unlike
// GlobalMemory it tracks only a single access counter, per spec.
type SharedMemory struct {
	size int64

	accesses atomic.Int64
}

// NewSharedMemory returns a SharedMemory region of the given size in bytes.
func NewSharedMemory(size int64) *SharedMemory {
	return &SharedMemory{size: size}
}

// Read validates bounds and, on success, increments the access counter.
func (m *SharedMemory) Read(address, bytes int64) bool {
	if address < 0 || bytes < 0 || address+bytes > m.size {
		return false
	}
	m.accesses.Add(1)
	return true
}

// Write validates bounds and, on success, increments the access counter.
func (m *SharedMemory) Write(address, bytes int64) bool {
	if address < 0 || bytes < 0 || address+bytes > m.size {
		return false
	}
	m.accesses.Add(1)
	return true
}

func (m *SharedMemory) Accesses() int64 { return m.accesses.Load() }

// RegisterFile is a bounded array of 32-bit registers belonging to a single
// thread. Reads and writes are bounds-checked per spec §7.
type RegisterFile struct {
	registers [RegistersPerThread]uint32
}

// Read returns the value at index and true, or (0, false) if index is out
// of range.
func (r *RegisterFile) Read(index int) (uint32, bool) {
	if index < 0 || index >= len(r.registers) {
		return 0, false
	}
	return r.registers[index], true
}

// Write stores value at index and returns true, or returns false and
// leaves the register file unmodified if index is out of range.
func (r *RegisterFile) Write(index int, value uint32) bool {
	if index < 0 || index >= len(r.registers) {
		return false
	}
	r.registers[index] = value
	return true
}

// MemoryController aggregates the global memory region and device-wide
// memory counters. Shared ownership across every compute unit is achieved
// through atomic counters rather than a lock: no counter increment here
// ever spans more than one atomic operation.
type MemoryController struct {
	Global *GlobalMemory

	totalMemoryOps atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
}

// NewMemoryController returns a MemoryController backed by a GlobalMemory
// region of the given size.
func NewMemoryController(globalMemorySize int64) *MemoryController {
	return &MemoryController{
		Global: NewGlobalMemory(globalMemorySize),
	}
}

// RecordMemoryOp increments the device-wide memory-op counter. Compute
// units call this once per simulated memory-op instruction, independent of
// whether that op goes on to stall.
func (c *MemoryController) RecordMemoryOp() {
	c.totalMemoryOps.Add(1)
}

// TotalMemoryOps returns the device-wide count of recorded memory ops.
func (c *MemoryController) TotalMemoryOps() int64 {
	return c.totalMemoryOps.Load()
}

// CacheHitRate returns the fraction of classified accesses that were hits,
// or 0 if none have been classified. No component in this package
// classifies accesses as hits or misses, since no cache model is specified;
// the accessors exist for API completeness with the original simulator and
// are ready for a future cache model to drive them.
func (c *MemoryController) CacheHitRate() float64 {
	hits := c.cacheHits.Load()
	misses := c.cacheMisses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
