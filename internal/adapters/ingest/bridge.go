package ingest

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"webtrace/internal/domain"
	obs "webtrace/internal/infrastructure/observability"
)

// Bridge is the push delivery channel: the in-page instrumentation opens a
// websocket and sends one structured JSON message per interaction. A failing
// connection closes quietly; the other channels keep delivering.
type Bridge struct {
	sink     Sink
	logger   *zerolog.Logger
	metrics  *obs.Metrics
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewBridge(sink Sink, logger *zerolog.Logger, metrics *obs.Metrics) *Bridge {
	return &Bridge{
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		conns:    make(map[*websocket.Conn]struct{}),
	}
}

func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) { b.HandleWS(w, r) }

// HandleWS upgrades the connection and reads interaction messages until the
// peer goes away.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.metrics.ChannelErrorsTotal.WithLabelValues("bridge").Inc()
		return
	}
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	_ = c.SetReadDeadline(time.Time{})
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		}
		ev, err := DecodeInteraction(raw)
		if err != nil {
			b.metrics.ChannelErrorsTotal.WithLabelValues("bridge").Inc()
			b.logger.Debug().Err(err).Msg("bridge payload dropped")
			continue
		}
		b.metrics.ChannelDeliveriesTotal.WithLabelValues("bridge").Inc()
		appended, err := b.sink.RecordInteraction(r.Context(), ev)
		if err != nil {
			b.logger.Debug().Err(err).Msg("bridge append rejected")
			continue
		}
		if !appended {
			b.metrics.DedupDropsTotal.Inc()
			continue
		}
		b.metrics.EventsTotal.WithLabelValues(domain.TypeInteraction).Inc()
	}
	b.mu.Lock()
	delete(b.conns, c)
	b.mu.Unlock()
	_ = c.Close()
}

// Close drops all live connections, used at session stop.
func (b *Bridge) Close() {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.conns = make(map[*websocket.Conn]struct{})
	b.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}
