package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// PerfCollector tracks the completion rate of a long scan over a rolling
// window and projects its remaining time. Safe for concurrent use.
type PerfCollector struct {
	mu          sync.Mutex
	windowSize  int
	samples     []time.Duration // time between consecutive completions
	writeIndex  int
	sampleCount int

	total int
	done  int
	start time.Time
	last  time.Time

	now func() time.Time
}

// NewPerfCollector creates a collector for a scan of total items.
// windowSize: number of completions to average the rate over.
func NewPerfCollector(windowSize, total int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 50
	}
	p := &PerfCollector{
		windowSize: windowSize,
		samples:    make([]time.Duration, windowSize),
		total:      total,
		now:        time.Now,
	}
	p.start = p.now()
	p.last = p.start
	return p
}

// Record marks one item as completed.
func (p *PerfCollector) Record() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.samples[p.writeIndex] = now.Sub(p.last)
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.last = now
	p.done++
}

// PerfStats holds aggregated progress statistics.
type PerfStats struct {
	Done    int
	Total   int
	Elapsed time.Duration

	// Time between completions over the window
	AvgItem time.Duration
	MinItem time.Duration
	MaxItem time.Duration

	ItemsPerSecond float64
	ETA            time.Duration // zero until the first completion
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PerfStats{
		Done:    p.done,
		Total:   p.total,
		Elapsed: p.now().Sub(p.start),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var sum, minItem, maxItem time.Duration
	for i := 0; i < p.sampleCount; i++ {
		d := p.samples[i]
		sum += d
		if i == 0 || d < minItem {
			minItem = d
		}
		if d > maxItem {
			maxItem = d
		}
	}

	stats.AvgItem = sum / time.Duration(p.sampleCount)
	stats.MinItem = minItem
	stats.MaxItem = maxItem
	if stats.AvgItem > 0 {
		stats.ItemsPerSecond = float64(time.Second) / float64(stats.AvgItem)
	}
	if remaining := p.total - p.done; remaining > 0 {
		stats.ETA = stats.AvgItem * time.Duration(remaining)
	}
	return stats
}

// Progress returns the completed fraction in [0, 1].
func (s PerfStats) Progress() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Done) / float64(s.Total)
}

// LogStats logs progress statistics.
func (s PerfStats) LogStats() {
	slog.Info("progress",
		"done", s.Done,
		"total", s.Total,
		"pct", int(s.Progress()*1000)/10.0,
		"avg_item_ms", s.AvgItem.Milliseconds(),
		"items_per_sec", s.ItemsPerSecond,
		"elapsed", s.Elapsed.Round(time.Second).String(),
		"eta", s.ETA.Round(time.Second).String(),
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("done", s.Done),
		slog.Int("total", s.Total),
		slog.Int64("elapsed_ms", s.Elapsed.Milliseconds()),
		slog.Int64("avg_item_us", s.AvgItem.Microseconds()),
		slog.Int64("min_item_us", s.MinItem.Microseconds()),
		slog.Int64("max_item_us", s.MaxItem.Microseconds()),
		slog.Float64("items_per_sec", s.ItemsPerSecond),
		slog.Int64("eta_ms", s.ETA.Milliseconds()),
	)
}

// PerfStatsCSV is a flat struct for CSV export of progress stats.
type PerfStatsCSV struct {
	Done        int     `csv:"done"`
	Total       int     `csv:"total"`
	ElapsedMS   int64   `csv:"elapsed_ms"`
	AvgItemUS   int64   `csv:"avg_item_us"`
	MinItemUS   int64   `csv:"min_item_us"`
	MaxItemUS   int64   `csv:"max_item_us"`
	ItemsPerSec float64 `csv:"items_per_sec"`
	ETAMS       int64   `csv:"eta_ms"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Done:        s.Done,
		Total:       s.Total,
		ElapsedMS:   s.Elapsed.Milliseconds(),
		AvgItemUS:   s.AvgItem.Microseconds(),
		MinItemUS:   s.MinItem.Microseconds(),
		MaxItemUS:   s.MaxItem.Microseconds(),
		ItemsPerSec: s.ItemsPerSecond,
		ETAMS:       s.ETA.Milliseconds(),
	}
}
