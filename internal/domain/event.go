package domain

import "strconv"

// Event type discriminants used in the exported timeline.
const (
	TypeInteraction = "interaction"
	TypeNetwork     = "network"
)

// Interaction kinds delivered by the in-page instrumentation.
const (
	KindClick  = "click"
	KindInput  = "input"
	KindChange = "change"
	KindSubmit = "submit"
)

// Event is one entry in a session timeline. Timestamps are wall-clock
// milliseconds from a single local clock source.
type Event interface {
	OccurredAt() int64
	EventType() string
}

// InteractionEvent records one user action on the observed page.
// Value is nil for password-typed fields; FormValues carries the redaction
// marker in place of password field values, never the raw input.
type InteractionEvent struct {
	Timestamp  int64             `json:"timestamp"`
	Type       string            `json:"type"`
	EventKind  string            `json:"eventKind"`
	Selector   string            `json:"selector"`
	TagName    string            `json:"tagName"`
	Attributes map[string]string `json:"attributes"`
	Text       string            `json:"text"`
	Value      *string           `json:"value,omitempty"`
	FormValues map[string]string `json:"formValues,omitempty"`
	PageURL    string            `json:"pageUrl"`
}

func (e *InteractionEvent) OccurredAt() int64 { return e.Timestamp }
func (e *InteractionEvent) EventType() string { return TypeInteraction }

// DedupKey identifies the logical occurrence regardless of which delivery
// channel carried it.
func (e *InteractionEvent) DedupKey() string {
	return strconv.FormatInt(e.Timestamp, 10) + "|" + e.Selector + "|" + e.EventKind
}

// NetworkEvent records one HTTP exchange scoped to the session's root domain.
// A failed request carries Error and nil response fields; bodies are either a
// raw string, a parsed JSON structure, or the binary placeholder.
type NetworkEvent struct {
	Timestamp       int64             `json:"timestamp"`
	Type            string            `json:"type"`
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	RequestHeaders  map[string]string `json:"requestHeaders"`
	RequestBody     any               `json:"requestBody"`
	ResponseStatus  *int              `json:"responseStatus"`
	ResponseHeaders map[string]string `json:"responseHeaders"`
	ResponseBody    any               `json:"responseBody"`
	Error           *string           `json:"error,omitempty"`
}

func (e *NetworkEvent) OccurredAt() int64 { return e.Timestamp }
func (e *NetworkEvent) EventType() string { return TypeNetwork }
