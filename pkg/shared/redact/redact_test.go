package redact

import "testing"

func TestHeaders(t *testing.T) {
	in := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer abc123",
		"Cookie":        "sid=deadbeef",
	}
	out := Headers(in)
	if out["Content-Type"] != "application/json" {
		t.Fatalf("plain header changed: %v", out)
	}
	if out["Authorization"] != Marker || out["Cookie"] != Marker {
		t.Fatalf("sensitive headers leaked: %v", out)
	}
	if in["Authorization"] != "Bearer abc123" {
		t.Fatalf("input map mutated")
	}
}

func TestBodyNested(t *testing.T) {
	in := map[string]any{
		"user": map[string]any{"name": "alice", "password": "secret"},
		"tokens": []any{
			map[string]any{"access_token": "xyz"},
		},
		"ok": true,
	}
	out := Body(in).(map[string]any)
	user := out["user"].(map[string]any)
	if user["password"] != Marker || user["name"] != "alice" {
		t.Fatalf("user = %v", user)
	}
	tok := out["tokens"].([]any)[0].(map[string]any)
	if tok["access_token"] != Marker {
		t.Fatalf("token leaked: %v", tok)
	}
}

func TestBodyScalarPassthrough(t *testing.T) {
	if got := Body("plain text"); got != "plain text" {
		t.Fatalf("got %v", got)
	}
}
