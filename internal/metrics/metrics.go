package metrics

import (
	"sync"
)

// latency bucket upper bounds in milliseconds; the last bucket is open
var bucketBounds = []float64{50, 100, 200}

// Collector tracks in-process counters for email scoring. It is safe for
// concurrent use.
type Collector struct {
	mu sync.Mutex

	emailsProcessed   int64
	errors            int64
	repliesGenerated  int64
	totalLatencyMs    float64
	latencyBuckets    [4]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// RecordEmail records one scoring call and its latency.
func (c *Collector) RecordEmail(latencyMs float64, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.emailsProcessed++
	if !success {
		c.errors++
		return
	}

	c.totalLatencyMs += latencyMs
	for i, bound := range bucketBounds {
		if latencyMs < bound {
			c.latencyBuckets[i]++
			return
		}
	}
	c.latencyBuckets[len(bucketBounds)]++
}

// RecordReply records one generated reply.
func (c *Collector) RecordReply() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repliesGenerated++
}

// Snapshot is a point-in-time copy of the collected metrics.
type Snapshot struct {
	EmailsProcessed  int64
	Errors           int64
	RepliesGenerated int64
	AverageLatencyMs float64
	LatencyBuckets   map[string]int64
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	avg := 0.0
	if succeeded := c.emailsProcessed - c.errors; succeeded > 0 {
		avg = c.totalLatencyMs / float64(succeeded)
	}

	return Snapshot{
		EmailsProcessed:  c.emailsProcessed,
		Errors:           c.errors,
		RepliesGenerated: c.repliesGenerated,
		AverageLatencyMs: avg,
		LatencyBuckets: map[string]int64{
			"<50ms":     c.latencyBuckets[0],
			"50-100ms":  c.latencyBuckets[1],
			"100-200ms": c.latencyBuckets[2],
			">200ms":    c.latencyBuckets[3],
		},
	}
}
