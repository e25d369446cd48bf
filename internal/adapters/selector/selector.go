// Package selector normalizes value-derived DOM element descriptors into
// stable locator strings and attribute snapshots. Elements are identified by
// value, never by live object references, so selectors survive the page's own
// object graph churn (nth-child locators remain the least stable fallback).
package selector

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"webtrace/internal/domain"
	"webtrace/pkg/shared/redact"
)

// MaxTextLength caps captured element text; TruncationMarker is appended only
// when clipping occurred.
const (
	MaxTextLength    = 100
	TruncationMarker = "..."
)

// Whitelist of attributes worth keeping on an event. Anything else is noise
// for causal tracing and is dropped.
var relevantAttrs = []string{"id", "class", "name", "type", "href", "src", "value", "placeholder", "data-testid"}

// RawElement is the serialized element reference delivered by the in-page
// instrumentation. SiblingIndex is the 1-based position among same-tag
// siblings, used only for the nth-child fallback.
type RawElement struct {
	TagName      string            `json:"tagName"`
	Attributes   map[string]string `json:"attributes"`
	SiblingIndex int               `json:"siblingIndex"`
	Text         string            `json:"text"`
}

// FormField is one named control of a submitted form.
type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// Selector derives a best-effort stable locator:
//
//  1. "#id" when the element carries a non-empty id
//  2. "tag.class1.class2" preserving authored class order
//  3. "tag:nth-child(n)" as a last resort (n defaults to 1)
func Selector(el RawElement) string {
	tag := strings.ToLower(el.TagName)
	if tag == "" {
		tag = "div"
	}
	if id := el.Attributes["id"]; id != "" {
		return "#" + id
	}
	if cls := strings.TrimSpace(el.Attributes["class"]); cls != "" {
		classes := strings.Fields(cls)
		if len(classes) > 0 {
			return tag + "." + strings.Join(classes, ".")
		}
	}
	n := el.SiblingIndex
	if n < 1 {
		n = 1
	}
	return tag + ":nth-child(" + strconv.Itoa(n) + ")"
}

// Attributes filters the element's attribute bag down to the whitelist.
// Absent attributes are omitted, never emitted as empty values.
func Attributes(el RawElement) map[string]string {
	out := make(map[string]string, len(relevantAttrs))
	for _, name := range relevantAttrs {
		if v, ok := el.Attributes[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Text clips the element's rendered text to MaxTextLength characters. Text
// exactly at the limit is returned unchanged. The cut is on rune boundaries
// so multi-byte text stays valid UTF-8.
func Text(el RawElement) string {
	if utf8.RuneCountInString(el.Text) <= MaxTextLength {
		return el.Text
	}
	runes := []rune(el.Text)
	return string(runes[:MaxTextLength]) + TruncationMarker
}

// InputValue returns the captured value for input/change events. Password
// fields never expose their raw value.
func InputValue(el RawElement, value string) *string {
	if strings.EqualFold(el.Attributes["type"], "password") {
		return nil
	}
	return &value
}

// FormValues flattens submitted form fields into a name->value map, masking
// password-typed fields with the redaction marker.
func FormValues(fields []FormField) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if strings.EqualFold(f.Type, "password") {
			out[f.Name] = redact.Marker
			continue
		}
		out[f.Name] = f.Value
	}
	return out
}

// Normalize builds a canonical interaction event from a raw element reference.
// The timestamp is taken as delivered; the caller supplies kind and page URL.
func Normalize(ts int64, kind string, el RawElement, pageURL string) *domain.InteractionEvent {
	return &domain.InteractionEvent{
		Timestamp:  ts,
		Type:       domain.TypeInteraction,
		EventKind:  kind,
		Selector:   Selector(el),
		TagName:    strings.ToUpper(el.TagName),
		Attributes: Attributes(el),
		Text:       Text(el),
		PageURL:    pageURL,
	}
}
