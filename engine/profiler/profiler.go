package profiler

import (
	"fmt"
	"log"
	"runtime"
	"time"
)

// Stats is one reporting interval of frame and memory statistics.
type Stats struct {
	Frames      int
	FPS         float64
	FrameTimeMs float64
	// SkippedFrames counts frames dropped by the surface recovery policy.
	SkippedFrames int
	HeapMB        float64
	AllocRateMB   float64
	GCCount       uint32
	LastPauseUs   uint64
	MaxPauseUs    uint64
	SysMB         float64
}

func (s Stats) String() string {
	return fmt.Sprintf("FPS: %.2f (%.2f ms) | Skipped: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		s.FPS, s.FrameTimeMs, s.SkippedFrames, s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPauseUs, s.MaxPauseUs, s.SysMB)
}

// Profiler tracks frame rate and memory statistics and logs them once per interval.
type Profiler struct {
	frameCount     int
	skipped        int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	readMem        bool
	quiet          bool
	now            func() time.Time
}

// ProfilerOption is a functional option applied to a Profiler during construction via NewProfiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are reported. Defaults to one second.
//
// Parameters:
//   - interval: the reporting interval, ignored when not positive
//
// Returns:
//   - ProfilerOption: option function to apply
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerOption: option function to apply
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithMemoryStats enables or disables reading runtime memory statistics each interval.
//
// Parameters:
//   - enabled: false to report frame statistics only
//
// Returns:
//   - ProfilerOption: option function to apply
func WithMemoryStats(enabled bool) ProfilerOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}

// WithQuiet disables logging; Tick still returns the statistics.
//
// Parameters:
//   - quiet: true to stop logging
//
// Returns:
//   - ProfilerOption: option function to apply
func WithQuiet(quiet bool) ProfilerOption {
	return func(p *Profiler) {
		p.quiet = quiet
	}
}

// NewProfiler creates a Profiler reporting once per second.
//
// Parameters:
//   - opts: a variadic list of ProfilerOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		readMem:        true,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Skip records a frame that was dropped without rendering.
func (p *Profiler) Skip() {
	p.skipped++
}

// Tick should be called once per presented frame. When the interval has elapsed it logs and
// returns the statistics of the interval and starts a new one.
//
// Returns:
//   - Stats: the interval statistics, zero unless reported
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	stats := Stats{
		Frames:        p.frameCount,
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		FrameTimeMs:   float64(elapsed.Milliseconds()) / float64(p.frameCount),
		SkippedFrames: p.skipped,
	}
	if p.readMem {
		p.sampleMemory(&stats, elapsed)
	}
	if !p.quiet {
		log.Printf("[Profiler] %s", stats)
	}

	p.frameCount = 0
	p.skipped = 0
	p.lastTime = currentTime
	return stats, true
}

// sampleMemory fills the heap, allocation rate and GC pause figures.
func (p *Profiler) sampleMemory(stats *Stats, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	stats.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	stats.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	stats.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses
	gcCount := p.memStats.NumGC
	stats.GCCount = gcCount
	if gcCount > 0 {
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			stats.MaxPauseUs = max(stats.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
