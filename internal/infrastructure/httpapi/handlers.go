package httpapi

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"webtrace/internal/adapters/netlog"
	"webtrace/internal/domain"
	"webtrace/internal/usecase"
)

// rawExchange is the driver-facing wire shape for one network notification.
// A non-empty error marks a failed request; responseStatus is absent then.
type rawExchange struct {
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	RequestHeaders  map[string]string `json:"requestHeaders"`
	RequestBody     string            `json:"requestBody"`
	ResponseStatus  *int              `json:"responseStatus"`
	ResponseHeaders map[string]string `json:"responseHeaders"`
	ResponseBody    string            `json:"responseBody"`
	Error           string            `json:"error"`
}

// handleNetworkExchange accepts one completed or failed exchange from the
// automation driver. Out-of-scope traffic acknowledges with dropped=true;
// that is not an error.
func (d *Deps) handleNetworkExchange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "POST required", nil)
		return
	}
	var ex rawExchange
	if err := json.NewDecoder(r.Body).Decode(&ex); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", err.Error(), nil)
		return
	}
	req := netlog.RawRequest{
		URL:     ex.URL,
		Method:  ex.Method,
		Headers: ex.RequestHeaders,
	}
	if ex.RequestBody != "" {
		req.Body = []byte(ex.RequestBody)
	}

	var ev *domain.NetworkEvent
	switch {
	case ex.Error != "":
		ev = d.Builder.FromFailure(req, ex.Error)
	case ex.ResponseStatus != nil:
		resp := netlog.RawResponse{Status: *ex.ResponseStatus, Headers: ex.ResponseHeaders}
		if ex.ResponseBody != "" {
			resp.Body = []byte(ex.ResponseBody)
		}
		ev = d.Builder.FromExchange(req, resp)
	default:
		// in flight; the driver should not have delivered it
		writeError(w, http.StatusBadRequest, "INCOMPLETE_EXCHANGE", "neither response nor error present", nil)
		return
	}

	if ev == nil {
		d.Metrics.OutOfScopeTotal.Inc()
		writeJSON(w, map[string]any{"dropped": true})
		return
	}
	if err := d.Svc.RecordNetwork(r.Context(), ev); err != nil {
		if errors.Is(err, usecase.ErrFinalized) {
			writeError(w, http.StatusConflict, "SESSION_FINALIZED", "recording has stopped", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "APPEND_FAILED", err.Error(), nil)
		return
	}
	d.Metrics.EventsTotal.WithLabelValues(domain.TypeNetwork).Inc()
	d.Metrics.TimelineEvents.Set(float64(d.Svc.Size()))
	writeJSON(w, map[string]any{"dropped": false})
}

// handleConsoleLines accepts a text/plain body of console output, one line
// per message. Lines without the event prefix are ignored.
func (d *Deps) handleConsoleLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "POST required", nil)
		return
	}
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		d.Console.HandleLine(r.Context(), scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", err.Error(), nil)
		return
	}
	d.Metrics.TimelineEvents.Set(float64(d.Svc.Size()))
	w.WriteHeader(http.StatusAccepted)
}

// handleBufferPush enqueues one serialized interaction into the polled
// fallback channel; the poller drains and normalizes it on the next tick.
func (d *Deps) handleBufferPush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "POST required", nil)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", err.Error(), nil)
		return
	}
	d.Buffer.Push(raw)
	w.WriteHeader(http.StatusAccepted)
}

// handleDOMSnapshot stores the initial page markup. Only the first non-empty
// delivery is kept; it becomes the initial_dom.html companion artifact.
func (d *Deps) handleDOMSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "POST required", nil)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_PAYLOAD", err.Error(), nil)
		return
	}
	kept := d.DOM.Set(string(raw))
	writeJSON(w, map[string]any{"kept": kept})
}

// handleSessionView serializes the session as currently recorded. Before
// finalize the cross-stream order is not yet established; this is a live
// projection, not the export artifact.
func (d *Deps) handleSessionView(w http.ResponseWriter, r *http.Request) {
	sess := d.Svc.Snapshot(r.Context())
	events := sess.Events
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, domain.Export{Session: sess, Events: events})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
