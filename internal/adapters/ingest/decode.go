// Package ingest accepts interaction events from the redundant delivery
// channels (websocket push, console tap, polled buffer) and funnels them into
// the timeline through a single sink. Channels are interchangeable; the
// timeline collapses duplicate deliveries of the same logical occurrence.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"webtrace/internal/adapters/selector"
	"webtrace/internal/domain"
	"webtrace/pkg/shared/redact"
)

// Sink receives normalized interaction events. The second return of
// RecordInteraction is false when the delivery was collapsed as redundant.
type Sink interface {
	RecordInteraction(ctx context.Context, ev *domain.InteractionEvent) (bool, error)
}

var validKinds = map[string]bool{
	domain.KindClick:  true,
	domain.KindInput:  true,
	domain.KindChange: true,
	domain.KindSubmit: true,
}

// payload is the wire shape shared by all channels. Either Selector plus the
// flat fields are pre-computed in-page, or Element carries the raw reference
// and normalization happens here. Submit events may deliver FormFields with
// per-field types instead of a pre-redacted FormValues map.
type payload struct {
	Timestamp  int64                `json:"timestamp"`
	EventKind  string               `json:"eventKind"`
	Selector   string               `json:"selector"`
	TagName    string               `json:"tagName"`
	Attributes map[string]string    `json:"attributes"`
	Text       string               `json:"text"`
	Value      *string              `json:"value"`
	FormValues map[string]string    `json:"formValues"`
	FormFields []selector.FormField `json:"formFields"`
	Element    *selector.RawElement `json:"element"`
	PageURL    string               `json:"pageUrl"`
}

// DecodeInteraction parses one delivered interaction payload into its
// canonical event record, enforcing the redaction invariants regardless of
// which transport carried it.
func DecodeInteraction(raw []byte) (*domain.InteractionEvent, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ingest: decode interaction: %w", err)
	}
	if p.Timestamp <= 0 {
		return nil, fmt.Errorf("ingest: missing timestamp")
	}
	if !validKinds[p.EventKind] {
		return nil, fmt.Errorf("ingest: unknown event kind %q", p.EventKind)
	}

	el := selector.RawElement{TagName: p.TagName, Attributes: p.Attributes, Text: p.Text}
	if p.Element != nil {
		el = *p.Element
	}
	ev := selector.Normalize(p.Timestamp, p.EventKind, el, p.PageURL)
	if p.Element == nil && p.Selector != "" {
		// channel delivered a pre-computed locator; keep it as authored
		ev.Selector = p.Selector
	}

	switch p.EventKind {
	case domain.KindInput, domain.KindChange:
		if p.Value != nil {
			ev.Value = selector.InputValue(el, *p.Value)
		}
	case domain.KindSubmit:
		if len(p.FormFields) > 0 {
			ev.FormValues = selector.FormValues(p.FormFields)
		} else if len(p.FormValues) > 0 {
			ev.FormValues = maskSensitive(p.FormValues)
		}
	}
	return ev, nil
}

// maskSensitive is the defensive path for channels that deliver a flat
// formValues map with no field types: credential-looking keys are masked.
func maskSensitive(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if redact.IsSensitiveKey(k) {
			out[k] = redact.Marker
			continue
		}
		out[k] = v
	}
	return out
}
