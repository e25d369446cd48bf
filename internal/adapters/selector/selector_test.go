package selector

import (
	"strings"
	"testing"
	"unicode/utf8"

	"webtrace/pkg/shared/redact"
)

func TestSelectorPrefersID(t *testing.T) {
	el := RawElement{
		TagName:      "BUTTON",
		Attributes:   map[string]string{"id": "submit-btn", "class": "btn btn-primary"},
		SiblingIndex: 3,
	}
	if got := Selector(el); got != "#submit-btn" {
		t.Fatalf("Selector = %q, want #submit-btn", got)
	}
}

func TestSelectorClassFallback(t *testing.T) {
	el := RawElement{TagName: "DIV", Attributes: map[string]string{"class": "  card   card-wide "}}
	if got := Selector(el); got != "div.card.card-wide" {
		t.Fatalf("Selector = %q", got)
	}
}

func TestSelectorNthChildFallback(t *testing.T) {
	if got := Selector(RawElement{TagName: "LI", SiblingIndex: 4}); got != "li:nth-child(4)" {
		t.Fatalf("Selector = %q", got)
	}
	// no parent information defaults to position 1
	if got := Selector(RawElement{TagName: "SPAN"}); got != "span:nth-child(1)" {
		t.Fatalf("Selector = %q", got)
	}
}

func TestAttributesWhitelist(t *testing.T) {
	el := RawElement{
		TagName: "INPUT",
		Attributes: map[string]string{
			"id":          "email",
			"type":        "email",
			"placeholder": "you@example.com",
			"onclick":     "steal()",
			"style":       "color:red",
		},
	}
	attrs := Attributes(el)
	if len(attrs) != 3 {
		t.Fatalf("attrs = %v", attrs)
	}
	if _, ok := attrs["onclick"]; ok {
		t.Fatalf("non-whitelisted attribute leaked: %v", attrs)
	}
	if _, ok := attrs["class"]; ok {
		t.Fatalf("absent attribute must be omitted, got %v", attrs)
	}
}

func TestTextTruncation(t *testing.T) {
	exact := strings.Repeat("A", MaxTextLength)
	if got := Text(RawElement{Text: exact}); got != exact {
		t.Fatalf("text at the limit must pass through unchanged")
	}
	over := strings.Repeat("A", MaxTextLength+1)
	got := Text(RawElement{Text: over})
	if utf8.RuneCountInString(got) != MaxTextLength+len(TruncationMarker) {
		t.Fatalf("rune count = %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, TruncationMarker) {
		t.Fatalf("missing truncation marker: %q", got)
	}
}

func TestTextTruncationCountsRunes(t *testing.T) {
	// a 2-byte rune straddling byte 100 must not be split
	in := strings.Repeat("a", MaxTextLength-1) + "é" + "tail"
	got := Text(RawElement{Text: in})
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	want := strings.Repeat("a", MaxTextLength-1) + "é" + TruncationMarker
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	exact := strings.Repeat("é", MaxTextLength)
	if out := Text(RawElement{Text: exact}); out != exact {
		t.Fatalf("multi-byte text at the character limit must pass through unchanged")
	}
}

func TestInputValueMasksPasswords(t *testing.T) {
	pw := RawElement{TagName: "INPUT", Attributes: map[string]string{"type": "password"}}
	if v := InputValue(pw, "hunter2"); v != nil {
		t.Fatalf("password value leaked: %q", *v)
	}
	plain := RawElement{TagName: "INPUT", Attributes: map[string]string{"type": "text"}}
	v := InputValue(plain, "hello")
	if v == nil || *v != "hello" {
		t.Fatalf("value = %v", v)
	}
}

func TestFormValuesRedactsPasswordFields(t *testing.T) {
	values := FormValues([]FormField{
		{Name: "username", Value: "alice", Type: "text"},
		{Name: "password", Value: "secret123", Type: "password"},
	})
	if values["username"] != "alice" {
		t.Fatalf("values = %v", values)
	}
	if values["password"] != redact.Marker {
		t.Fatalf("password not redacted: %v", values)
	}
}

func TestNormalize(t *testing.T) {
	el := RawElement{
		TagName:      "button",
		Attributes:   map[string]string{"class": "cta", "data-testid": "buy"},
		SiblingIndex: 2,
		Text:         "Buy now",
	}
	ev := Normalize(1700000000000, "click", el, "https://shop.example.com/p/1")
	if ev.Selector != "button.cta" {
		t.Fatalf("selector = %q", ev.Selector)
	}
	if ev.TagName != "BUTTON" {
		t.Fatalf("tagName = %q", ev.TagName)
	}
	if ev.Attributes["data-testid"] != "buy" {
		t.Fatalf("attributes = %v", ev.Attributes)
	}
	if ev.EventKind != "click" || ev.Type != "interaction" {
		t.Fatalf("kind/type = %q/%q", ev.EventKind, ev.Type)
	}
}
