package gpusim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Device is the top-level orchestrator: it exclusively owns the compute
// units, the memory controller, the active scheduler, and the performance
// analyzer, and drives their lifecycle.
type Device struct {
	config DeviceConfig

	mu        sync.Mutex // serializes Start/Stop/Reset/SetScheduler
	scheduler Scheduler
	cus       []*ComputeUnit
	mem       *MemoryController
	analyzer  *PerformanceAnalyzer
	dist      *distributor

	running    atomic.Bool
	wg         sync.WaitGroup
	simStart   time.Time
	simEnd     time.Time
}

// NewDevice constructs a Device from cfg with a FIFO scheduler as the
// initial policy. cfg must request at least one compute unit.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.NumComputeUnits <= 0 {
		return nil, ErrNoComputeUnits
	}

	mem := NewMemoryController(cfg.GlobalMemorySize)
	cus := make([]*ComputeUnit, cfg.NumComputeUnits)
	for i := range cus {
		cus[i] = NewComputeUnit(CoreID(i), mem, cfg.MaxBlocksPerCU, cfg.MaxWarpsPerCU(), cfg.MaxThreadsPerCU())
	}

	d := &Device{
		config:    cfg,
		scheduler: NewFIFOScheduler(),
		cus:       cus,
		mem:       mem,
		analyzer:  NewPerformanceAnalyzer(),
	}
	d.dist = newDistributor(d.scheduler, d.cus, d.mem, d.analyzer)
	return d, nil
}

// SetScheduler replaces the active scheduling policy. Valid only while the
// device is not running.
func (d *Device) SetScheduler(s Scheduler) error {
	if s == nil {
		return ErrNilScheduler
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return ErrDeviceAlreadyRunning
	}
	d.scheduler = s
	d.dist = newDistributor(s, d.cus, d.mem, d.analyzer)
	return nil
}

// SubmitWorkload materializes w's thread blocks (sized to this device's
// configured shared-memory-per-block) and hands it to the active
// scheduler.
func (d *Device) SubmitWorkload(w *Workload) {
	w.GenerateThreadBlocksWithSharedMemory(d.config.SharedMemoryPerBlock)
	d.scheduler.AddWorkload(w)
	logger().Debug("workload submitted", zap.String("workload", w.Name))
}

// Start spawns one executor goroutine per compute unit plus the
// distributor goroutine. Calling Start while already running is a no-op.
func (d *Device) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return
	}
	d.running.Store(true)
	d.simStart = time.Now()
	logger().Info(d.String())

	for _, cu := range d.cus {
		cu.ResetRunState()
	}
	d.dist.resetRunState()

	for _, cu := range d.cus {
		cu := cu
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			cu.Run()
		}()
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.dist.run(context.Background())
	}()

	logger().Debug("device started", zap.String("device", d.config.DeviceName), zap.Int("compute_units", len(d.cus)))
}

// Stop signals every executor and the distributor to halt, then joins all
// of them unconditionally. Calling Stop on an already-stopped device is a
// no-op and changes no metric.
func (d *Device) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	d.running.Store(false)

	for _, cu := range d.cus {
		cu.Stop()
	}
	d.dist.stop()
	d.wg.Wait()

	d.simEnd = time.Now()
	d.analyzer.RecordDeviceSummary(d.cus, d.mem, d.simEnd.Sub(d.simStart))

	logger().Debug("device stopped", zap.String("device", d.config.DeviceName))
}

// WaitForCompletion polls the scheduler until it has no pending and no
// running workloads, then stops the device.
func (d *Device) WaitForCompletion() {
	for {
		if d.scheduler.PendingCount() == 0 && d.scheduler.RunningCount() == 0 {
			break
		}
		time.Sleep(distributorNoPendingSleep)
	}
	d.Stop()
}

// Reset stops the device (if running), zeroes every compute unit's
// metrics, and clears the performance analyzer.
func (d *Device) Reset() {
	d.Stop()

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, cu := range d.cus {
		cu.ResetMetrics()
	}
	d.analyzer.Clear()
}

// GetPerformanceAnalyzer returns the device's metrics aggregator.
func (d *Device) GetPerformanceAnalyzer() *PerformanceAnalyzer {
	return d.analyzer
}

// ComputeUnits returns the device's compute units, in index order. The
// slice itself must not be mutated by callers.
func (d *Device) ComputeUnits() []*ComputeUnit {
	return d.cus
}

// MemoryController returns the device's shared memory controller.
func (d *Device) MemoryController() *MemoryController {
	return d.mem
}

// IsRunning reports whether the device is currently running.
func (d *Device) IsRunning() bool {
	return d.running.Load()
}

// String implements fmt.Stringer, summarizing the device's configuration.
func (d *Device) String() string {
	return fmt.Sprintf("Device(%s): %d compute units, %d warps/cu, %d threads/warp, scheduler=%s",
		d.config.DeviceName, len(d.cus), d.config.WarpsPerCU, d.config.ThreadsPerWarp, d.scheduler.Name())
}
