package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"webtrace/internal/domain"
	obs "webtrace/internal/infrastructure/observability"
)

// DefaultPollInterval matches the cadence the in-page buffer is drained at
// when no push channel is available.
const DefaultPollInterval = 500 * time.Millisecond

// PollBuffer is the fallback delivery channel: a bounded queue the producer
// pushes serialized events into and the poller drains destructively. It is
// reset at session start; at capacity the oldest entry is dropped.
type PollBuffer struct {
	mu      sync.Mutex
	items   [][]byte
	cap     int
	dropped int
}

func NewPollBuffer(capacity int) *PollBuffer {
	if capacity <= 0 {
		capacity = 1024
	}
	return &PollBuffer{items: make([][]byte, 0, capacity), cap: capacity}
}

// Push enqueues one serialized event, evicting from the head at capacity.
func (b *PollBuffer) Push(raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) >= b.cap {
		b.items = b.items[1:]
		b.dropped++
	}
	b.items = append(b.items, raw)
}

// Drain removes and returns all queued entries.
func (b *PollBuffer) Drain() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = make([][]byte, 0, b.cap)
	return out
}

// Reset clears the buffer, discarding anything left from a previous session.
func (b *PollBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = b.items[:0]
	b.dropped = 0
}

// Dropped reports how many entries were evicted at capacity.
func (b *PollBuffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Poller drains a PollBuffer on a fixed tick and feeds the sink. On
// cancellation it performs one final flush so nothing queued at stop time is
// lost.
type Poller struct {
	buffer   *PollBuffer
	interval time.Duration
	sink     Sink
	logger   *zerolog.Logger
	metrics  *obs.Metrics

	seenDrops int
}

func NewPoller(buffer *PollBuffer, interval time.Duration, sink Sink, logger *zerolog.Logger, metrics *obs.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{buffer: buffer, interval: interval, sink: sink, logger: logger, metrics: metrics}
}

// Run blocks until ctx is done, draining the buffer each tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			p.flush(ctx)
		}
	}
}

func (p *Poller) flush(ctx context.Context) {
	if d := p.buffer.Dropped(); d > p.seenDrops {
		p.metrics.BufferOverflowTotal.Add(float64(d - p.seenDrops))
		p.seenDrops = d
	}
	for _, raw := range p.buffer.Drain() {
		ev, err := DecodeInteraction(raw)
		if err != nil {
			p.metrics.ChannelErrorsTotal.WithLabelValues("buffer").Inc()
			p.logger.Debug().Err(err).Msg("buffered payload dropped")
			continue
		}
		p.metrics.ChannelDeliveriesTotal.WithLabelValues("buffer").Inc()
		appended, err := p.sink.RecordInteraction(ctx, ev)
		if err != nil {
			p.logger.Debug().Err(err).Msg("buffered append rejected")
			continue
		}
		if !appended {
			p.metrics.DedupDropsTotal.Inc()
			continue
		}
		p.metrics.EventsTotal.WithLabelValues(domain.TypeInteraction).Inc()
	}
}
