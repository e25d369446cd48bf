package ingest

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"webtrace/internal/domain"
	obs "webtrace/internal/infrastructure/observability"
	"webtrace/pkg/shared/redact"
)

type fakeSink struct {
	mu     sync.Mutex
	events []*domain.InteractionEvent
	seen   map[string]struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{seen: make(map[string]struct{})}
}

func (f *fakeSink) RecordInteraction(ctx context.Context, ev *domain.InteractionEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ev.DedupKey()
	if _, dup := f.seen[key]; dup {
		return false, nil
	}
	f.seen[key] = struct{}{}
	f.events = append(f.events, ev)
	return true, nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func testDeps() (*zerolog.Logger, *obs.Metrics) {
	logger := zerolog.New(io.Discard)
	return &logger, obs.NewMetrics()
}

const clickPayload = `{"timestamp":1700000000000,"eventKind":"click","selector":"#buy","tagName":"BUTTON","attributes":{"id":"buy"},"text":"Buy","pageUrl":"https://shop.example.com/"}`

func TestDecodeInteractionFlatPayload(t *testing.T) {
	ev, err := DecodeInteraction([]byte(clickPayload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Selector != "#buy" || ev.EventKind != "click" || ev.Type != "interaction" {
		t.Fatalf("ev = %+v", ev)
	}
}

func TestDecodeInteractionFromRawElement(t *testing.T) {
	raw := `{"timestamp":1,"eventKind":"click","pageUrl":"https://x.example.com/","element":{"tagName":"A","attributes":{"class":"nav link","href":"/home"},"siblingIndex":2,"text":"Home"}}`
	ev, err := DecodeInteraction([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Selector != "a.nav.link" {
		t.Fatalf("selector = %q", ev.Selector)
	}
	if ev.Attributes["href"] != "/home" {
		t.Fatalf("attributes = %v", ev.Attributes)
	}
}

func TestDecodeInteractionRejectsGarbage(t *testing.T) {
	if _, err := DecodeInteraction([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := DecodeInteraction([]byte(`{"timestamp":1,"eventKind":"hover"}`)); err == nil {
		t.Fatalf("unknown kind must be rejected")
	}
	if _, err := DecodeInteraction([]byte(`{"eventKind":"click"}`)); err == nil {
		t.Fatalf("missing timestamp must be rejected")
	}
}

func TestDecodePasswordInvariants(t *testing.T) {
	input := `{"timestamp":2,"eventKind":"input","tagName":"INPUT","attributes":{"type":"password","id":"pw"},"value":"hunter2","pageUrl":"https://x.example.com/"}`
	ev, err := DecodeInteraction([]byte(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Value != nil {
		t.Fatalf("password value leaked: %q", *ev.Value)
	}

	submit := `{"timestamp":3,"eventKind":"submit","tagName":"FORM","formFields":[{"name":"user","value":"alice","type":"text"},{"name":"password","value":"secret","type":"password"}],"pageUrl":"https://x.example.com/"}`
	ev, err = DecodeInteraction([]byte(submit))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.FormValues["password"] != redact.Marker || ev.FormValues["user"] != "alice" {
		t.Fatalf("formValues = %v", ev.FormValues)
	}
}

func TestDecodeFlatFormValuesMasksSensitiveKeys(t *testing.T) {
	submit := `{"timestamp":4,"eventKind":"submit","tagName":"FORM","formValues":{"email":"a@b.c","password":"raw"},"pageUrl":"https://x.example.com/"}`
	ev, err := DecodeInteraction([]byte(submit))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.FormValues["password"] != redact.Marker {
		t.Fatalf("formValues = %v", ev.FormValues)
	}
}

func TestConsoleTap(t *testing.T) {
	logger, metrics := testDeps()
	sink := newFakeSink()
	tap := NewConsoleTap(sink, logger, metrics)
	ctx := context.Background()

	tap.HandleLine(ctx, "plain console noise")
	tap.HandleLine(ctx, ConsolePrefix+clickPayload)
	tap.HandleLine(ctx, ConsolePrefix+"{broken")
	if sink.count() != 1 {
		t.Fatalf("events = %d", sink.count())
	}
}

func TestDuplicateAcrossChannelsCollapses(t *testing.T) {
	logger, metrics := testDeps()
	sink := newFakeSink()
	tap := NewConsoleTap(sink, logger, metrics)
	buf := NewPollBuffer(16)
	poller := NewPoller(buf, 10*time.Millisecond, sink, logger, metrics)

	tap.HandleLine(context.Background(), ConsolePrefix+clickPayload)
	buf.Push([]byte(clickPayload))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { poller.Run(ctx); close(done) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if sink.count() != 1 {
		t.Fatalf("logical occurrence recorded %d times", sink.count())
	}
}

func TestPollBufferOverflowDropsOldest(t *testing.T) {
	buf := NewPollBuffer(2)
	buf.Push([]byte("a"))
	buf.Push([]byte("b"))
	buf.Push([]byte("c"))
	got := buf.Drain()
	if len(got) != 2 || string(got[0]) != "b" || string(got[1]) != "c" {
		t.Fatalf("drained = %q", got)
	}
	if buf.Dropped() != 1 {
		t.Fatalf("dropped = %d", buf.Dropped())
	}
}

func TestPollerFinalFlushOnCancel(t *testing.T) {
	logger, metrics := testDeps()
	sink := newFakeSink()
	buf := NewPollBuffer(16)
	poller := NewPoller(buf, time.Hour, sink, logger, metrics)

	buf.Push([]byte(clickPayload))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { poller.Run(ctx); close(done) }()
	cancel()
	<-done
	if sink.count() != 1 {
		t.Fatalf("queued event lost at stop, count = %d", sink.count())
	}
}

func TestBridgeWS(t *testing.T) {
	logger, metrics := testDeps()
	sink := newFakeSink()
	bridge := NewBridge(sink, logger, metrics)
	srv := httptest.NewServer(bridge)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if err := c.WriteMessage(websocket.TextMessage, []byte(clickPayload)); err != nil {
		t.Fatalf("write: %v", err)
	}
	// malformed message must not kill the connection
	if err := c.WriteMessage(websocket.TextMessage, []byte("{broken")); err != nil {
		t.Fatalf("write: %v", err)
	}
	second := strings.Replace(clickPayload, "1700000000000", "1700000000001", 1)
	if err := c.WriteMessage(websocket.TextMessage, []byte(second)); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if sink.count() != 2 {
		t.Fatalf("events = %d", sink.count())
	}
	_ = c.Close()
	bridge.Close()
}
