package ingest

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"webtrace/internal/domain"
	obs "webtrace/internal/infrastructure/observability"
)

// ConsolePrefix marks interaction events mirrored through the page's console
// output.
const ConsolePrefix = "WEB_LOGGER_EVENT:"

// ConsoleTap is the text-line delivery channel: the in-page instrumentation
// mirrors each event as a prefixed console line which the driver forwards
// here. Unprefixed lines are ignored; malformed payloads are dropped without
// touching the session.
type ConsoleTap struct {
	sink    Sink
	logger  *zerolog.Logger
	metrics *obs.Metrics
}

func NewConsoleTap(sink Sink, logger *zerolog.Logger, metrics *obs.Metrics) *ConsoleTap {
	return &ConsoleTap{sink: sink, logger: logger, metrics: metrics}
}

// HandleLine inspects one console line and records the event it carries, if
// any.
func (c *ConsoleTap) HandleLine(ctx context.Context, line string) {
	if !strings.HasPrefix(line, ConsolePrefix) {
		return
	}
	raw := strings.TrimPrefix(line, ConsolePrefix)
	ev, err := DecodeInteraction([]byte(raw))
	if err != nil {
		c.metrics.ChannelErrorsTotal.WithLabelValues("console").Inc()
		c.logger.Debug().Err(err).Msg("console payload dropped")
		return
	}
	c.metrics.ChannelDeliveriesTotal.WithLabelValues("console").Inc()
	appended, err := c.sink.RecordInteraction(ctx, ev)
	if err != nil {
		c.logger.Debug().Err(err).Msg("console append rejected")
		return
	}
	if !appended {
		c.metrics.DedupDropsTotal.Inc()
		return
	}
	c.metrics.EventsTotal.WithLabelValues(domain.TypeInteraction).Inc()
}
