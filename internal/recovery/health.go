package recovery

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultHighWater is the memory usage percentage above which HealthCheck
// frees memory.
const DefaultHighWater = 90.0

// MemoryOptimizedMessage is announced after memory was freed.
const MemoryOptimizedMessage = "Memory optimized"

// MemoryProbe reports system memory usage in percent.
type MemoryProbe interface {
	UsedPercent(ctx context.Context) (float64, error)
}

// VirtualMemory reads memory usage from the operating system.
type VirtualMemory struct{}

// UsedPercent implements MemoryProbe.
func (VirtualMemory) UsedPercent(ctx context.Context) (float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read virtual memory")
	}
	return vm.UsedPercent, nil
}

// MemoryFunc adapts a function to MemoryProbe.
type MemoryFunc func(ctx context.Context) (float64, error)

// UsedPercent implements MemoryProbe.
func (f MemoryFunc) UsedPercent(ctx context.Context) (float64, error) { return f(ctx) }

// Resetter is a cache that can be emptied.
type Resetter interface {
	Reset()
}

// HealthReport is the outcome of one health check.
type HealthReport struct {
	UsedPercent float64 `json:"used_percent"`
	Optimized   bool    `json:"optimized"`
}

// HealthChecker frees memory when the system runs low.
type HealthChecker struct {
	Probe     MemoryProbe
	HighWater float64
	Cache     Resetter
}

// HealthCheck reads memory usage. Above the high-water mark the cache is
// emptied, a garbage collection forced and the user told.
func (s *Supervisor) HealthCheck(ctx context.Context, hc HealthChecker) (HealthReport, error) {
	probe := hc.Probe
	if probe == nil {
		probe = VirtualMemory{}
	}
	high := hc.HighWater
	if high <= 0 {
		high = DefaultHighWater
	}

	used, err := probe.UsedPercent(ctx)
	if err != nil {
		return HealthReport{}, err
	}
	report := HealthReport{UsedPercent: used}
	if used <= high {
		s.logger.Debugw("health check", "memory_percent", used)
		return report, nil
	}

	s.logger.Warnw("memory usage critical, freeing caches", "memory_percent", used, "high_water", high)
	if hc.Cache != nil {
		hc.Cache.Reset()
	}
	runtime.GC()
	report.Optimized = true
	s.announce(ctx, MemoryOptimizedMessage)
	return report, nil
}
