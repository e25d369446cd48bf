// Package netlog converts raw request/response records from the automation
// driver into canonical network events, applying scope filtering, body
// classification and redaction on the way.
package netlog

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"webtrace/internal/adapters/scope"
	"webtrace/internal/domain"
	"webtrace/pkg/shared/redact"
)

// BinaryPlaceholder replaces response bodies whose content type marks them as
// binary; raw bytes are never exported.
const BinaryPlaceholder = "[binary]"

var binaryTypes = []string{
	"image/",
	"audio/",
	"video/",
	"font/",
	"application/octet-stream",
	"application/pdf",
	"application/zip",
	"application/gzip",
	"application/font",
	"application/x-font",
}

// RawRequest is the driver-supplied request record.
type RawRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// RawResponse is the driver-supplied response record for a completed exchange.
type RawResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// Builder produces network events for one session. Out-of-scope traffic is
// dropped silently; a dropped request is not an error.
type Builder struct {
	resolver *scope.Resolver
	logger   *zerolog.Logger
	now      func() int64
}

func NewBuilder(resolver *scope.Resolver, logger *zerolog.Logger) *Builder {
	return &Builder{resolver: resolver, logger: logger, now: domain.NowMillis}
}

// FromExchange builds the event for a completed request/response pair, or nil
// when the URL is out of scope. The timestamp is taken when local processing
// completes so interactions and network records share one clock.
func (b *Builder) FromExchange(req RawRequest, resp RawResponse) *domain.NetworkEvent {
	if !b.resolver.InScope(req.URL) {
		b.logger.Debug().Str("url", req.URL).Msg("out of scope, dropped")
		return nil
	}
	status := resp.Status
	ev := &domain.NetworkEvent{
		Type:            domain.TypeNetwork,
		URL:             req.URL,
		Method:          req.Method,
		RequestHeaders:  redact.Headers(req.Headers),
		RequestBody:     parseRequestBody(req.Body),
		ResponseStatus:  &status,
		ResponseHeaders: redact.Headers(resp.Headers),
		ResponseBody:    parseResponseBody(resp),
	}
	ev.Timestamp = b.now()
	return ev
}

// FromFailure builds the event for a request that never completed (connection
// error, timeout, abort). Response fields stay empty; capture continues.
func (b *Builder) FromFailure(req RawRequest, reason string) *domain.NetworkEvent {
	if !b.resolver.InScope(req.URL) {
		b.logger.Debug().Str("url", req.URL).Msg("out of scope, dropped")
		return nil
	}
	ev := &domain.NetworkEvent{
		Type:            domain.TypeNetwork,
		URL:             req.URL,
		Method:          req.Method,
		RequestHeaders:  redact.Headers(req.Headers),
		RequestBody:     parseRequestBody(req.Body),
		ResponseHeaders: map[string]string{},
		Error:           &reason,
	}
	ev.Timestamp = b.now()
	return ev
}

// parseRequestBody attempts structured parsing, falling back to the raw
// string. No body yields nil.
func parseRequestBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err == nil {
		return redact.Body(v)
	}
	return string(body)
}

// parseResponseBody classifies the body: binary content types collapse to the
// placeholder; otherwise JSON is sniffed from the payload itself because some
// APIs mislabel JSON as text/plain.
func parseResponseBody(resp RawResponse) any {
	if isBinaryContentType(contentType(resp.Headers)) {
		return BinaryPlaceholder
	}
	if resp.Body == nil {
		return nil
	}
	text := string(resp.Body)
	if looksLikeJSON(text) || strings.Contains(strings.ToLower(contentType(resp.Headers)), "application/json") {
		var v any
		if err := json.Unmarshal([]byte(text), &v); err == nil {
			return redact.Body(v)
		}
	}
	return text
}

func looksLikeJSON(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "{") || strings.HasPrefix(t, "[")
}

func isBinaryContentType(ct string) bool {
	ct = strings.ToLower(ct)
	for _, bt := range binaryTypes {
		if strings.Contains(ct, bt) {
			return true
		}
	}
	return false
}

func contentType(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, "content-type") {
			return v
		}
	}
	return ""
}
