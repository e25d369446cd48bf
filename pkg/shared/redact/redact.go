// Package redact masks credentials and secrets before they reach the exported
// artifact. Raw values are replaced, never partially revealed.
package redact

import "strings"

// Marker replaces every redacted value.
const Marker = "[REDACTED]"

var sensitiveKeys = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"api_key",
	"apikey",
	"access_token",
	"refresh_token",
	"id_token",
	"password",
	"secret",
}

// Headers returns a copy of the header map with sensitive entries masked.
// The input map is never mutated.
func Headers(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if IsSensitiveKey(k) {
			out[k] = Marker
			continue
		}
		out[k] = v
	}
	return out
}

// Body walks a parsed JSON structure and masks sensitive object keys at any
// depth. Non-container values are returned as-is.
func Body(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			if IsSensitiveKey(k) {
				out[k] = Marker
				continue
			}
			out[k] = Body(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Body(t[i])
		}
		return out
	default:
		return v
	}
}

// IsSensitiveKey reports whether a header or body key carries a credential.
func IsSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	return false
}
