package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64
	eventsCreated   uint64
	eventsUpdated   uint64
	eventsDeleted   uint64
	eventsPurged    uint64
}

type Snapshot struct {
	RequestsTotal    uint64  `json:"requestsTotal"`
	ErrorsTotal      uint64  `json:"errorsTotal"`
	RateLimitedTotal uint64  `json:"rateLimitedTotal"`
	AvgDurationMs    float64 `json:"avgDurationMs"`
	TotalDurationMs  uint64  `json:"totalDurationMs"`
	EventsCreated    uint64  `json:"eventsCreated"`
	EventsUpdated    uint64  `json:"eventsUpdated"`
	EventsDeleted    uint64  `json:"eventsDeleted"`
	EventsPurged     uint64  `json:"eventsPurged"`
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) EventsCreated(n int) {
	if c != nil && n > 0 {
		atomic.AddUint64(&c.eventsCreated, uint64(n))
	}
}

func (c *Collector) EventUpdated() {
	if c != nil {
		atomic.AddUint64(&c.eventsUpdated, 1)
	}
}

func (c *Collector) EventDeleted() {
	if c != nil {
		atomic.AddUint64(&c.eventsDeleted, 1)
	}
}

func (c *Collector) EventsPurged(n int64) {
	if c != nil && n > 0 {
		atomic.AddUint64(&c.eventsPurged, uint64(n))
	}
}

func (c *Collector) Snapshot() Snapshot {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return Snapshot{
		RequestsTotal:    total,
		ErrorsTotal:      atomic.LoadUint64(&c.errorRequests),
		RateLimitedTotal: atomic.LoadUint64(&c.rateLimited),
		AvgDurationMs:    avg,
		TotalDurationMs:  totalMs,
		EventsCreated:    atomic.LoadUint64(&c.eventsCreated),
		EventsUpdated:    atomic.LoadUint64(&c.eventsUpdated),
		EventsDeleted:    atomic.LoadUint64(&c.eventsDeleted),
		EventsPurged:     atomic.LoadUint64(&c.eventsPurged),
	}
}
