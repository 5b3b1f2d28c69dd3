package gpusim

// DeviceConfig enumerates the tunable parameters of a Device. All fields
// have conservative, GPU-like defaults supplied by DefaultDeviceConfig.
type DeviceConfig struct {
	// NumComputeUnits is the number of compute units the device spawns.
	NumComputeUnits int
	// WarpsPerCU is the capacity of each compute unit's warp scheduler.
	WarpsPerCU int
	// ThreadsPerWarp is the number of threads in a full warp.
	ThreadsPerWarp int
	// MaxBlocksPerCU is the maximum number of thread blocks a compute
	// unit may hold concurrently.
	MaxBlocksPerCU int
	// GlobalMemorySize is the addressable size, in bytes, of the
	// simulated global memory region.
	GlobalMemorySize int64
	// SharedMemoryPerBlock is the size, in bytes, of each thread block's
	// shared memory region.
	SharedMemoryPerBlock int64
	// DeviceName is a free-text label used in logs and String().
	DeviceName string
}

// DefaultDeviceConfig returns the default device configuration: 68 compute
// units, 64 warps per CU, 32 threads per warp, 16 blocks per CU, 10 GiB of
// global memory, and 48 KiB of shared memory per block.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		NumComputeUnits:      68,
		WarpsPerCU:           64,
		ThreadsPerWarp:       WarpSize,
		MaxBlocksPerCU:       16,
		GlobalMemorySize:     10 * 1024 * 1024 * 1024,
		SharedMemoryPerBlock: 48 * 1024,
		DeviceName:           "gpusim-device",
	}
}

// MaxWarpsPerCU is derived from WarpsPerCU; kept as a method for symmetry
// with MaxBlocksPerCU and to leave room for a future independent cap
// without an API break.
func (c DeviceConfig) MaxWarpsPerCU() int {
	return c.WarpsPerCU
}

// MaxThreadsPerCU is the product of the warp cap and threads per warp.
func (c DeviceConfig) MaxThreadsPerCU() int {
	return c.WarpsPerCU * c.ThreadsPerWarp
}
