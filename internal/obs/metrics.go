package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

const maxKind = int(schema.KindLast)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	kindCounts  [maxKind + 1]uint64
	routeErrors uint64
	queueDrops  uint64
	queueClosed uint64

	ordersExpired   uint64
	betslipsDropped uint64
	staleQuotes     uint64
	recomputes      uint64

	routeLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	KindCounts      map[schema.Kind]uint64
	RouteErrors     uint64
	QueueDrops      uint64
	QueueClosed     uint64
	OrdersExpired   uint64
	BetslipsDropped uint64
	StaleQuotes     uint64
	Recomputes      uint64
	RouteLatency    LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveRoute counts one routed frame of the given kind.
func (m *Metrics) ObserveRoute(kind schema.Kind, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	idx := int(kind)
	if idx >= 0 && idx < len(m.kindCounts) {
		atomic.AddUint64(&m.kindCounts[idx], 1)
	}
	if !ok {
		atomic.AddUint64(&m.routeErrors, 1)
	}
	m.routeLatency.Observe(d)
}

// IncQueueDrop records a queue drop.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// AddOrdersExpired records locally expired orders.
func (m *Metrics) AddOrdersExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.ordersExpired, uint64(n))
}

// AddBetslipsDropped records betslips removed by the expiry sweep.
func (m *Metrics) AddBetslipsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.betslipsDropped, uint64(n))
}

// IncStaleQuote records a quote rejected by the monotonic timestamp guard.
func (m *Metrics) IncStaleQuote() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.staleQuotes, 1)
}

// AddRecomputes records betslips recomputed in a flush.
func (m *Metrics) AddRecomputes(n int) {
	if m == nil || n <= 0 {
		return
	}
	atomic.AddUint64(&m.recomputes, uint64(n))
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	kindCounts := make(map[schema.Kind]uint64)
	for i := range m.kindCounts {
		if v := atomic.LoadUint64(&m.kindCounts[i]); v > 0 {
			kindCounts[schema.Kind(i)] = v
		}
	}
	return Snapshot{
		KindCounts:      kindCounts,
		RouteErrors:     atomic.LoadUint64(&m.routeErrors),
		QueueDrops:      atomic.LoadUint64(&m.queueDrops),
		QueueClosed:     atomic.LoadUint64(&m.queueClosed),
		OrdersExpired:   atomic.LoadUint64(&m.ordersExpired),
		BetslipsDropped: atomic.LoadUint64(&m.betslipsDropped),
		StaleQuotes:     atomic.LoadUint64(&m.staleQuotes),
		Recomputes:      atomic.LoadUint64(&m.recomputes),
		RouteLatency:    m.routeLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
