// Package client is the delivery-side helper for automation drivers feeding a
// running webtrace recorder over HTTP.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client { return &Client{BaseURL: baseURL, HTTP: http.DefaultClient} }

// Exchange mirrors the recorder's /ingest/network wire shape.
type Exchange struct {
	URL             string            `json:"url"`
	Method          string            `json:"method"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	RequestBody     string            `json:"requestBody,omitempty"`
	ResponseStatus  *int              `json:"responseStatus,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	ResponseBody    string            `json:"responseBody,omitempty"`
	Error           string            `json:"error,omitempty"`
}

// PushExchange delivers one network notification. The returned bool reports
// whether the recorder kept it (false: out of scope).
func (c *Client) PushExchange(ex Exchange) (bool, error) {
	body, err := json.Marshal(ex)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Post(c.BaseURL+"/ingest/network", "application/json", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("client: ingest/network status %d", resp.StatusCode)
	}
	var ack struct {
		Dropped bool `json:"dropped"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return false, err
	}
	return !ack.Dropped, nil
}

// PushConsoleLines forwards captured console output, one line per message.
func (c *Client) PushConsoleLines(lines []string) error {
	resp, err := c.HTTP.Post(c.BaseURL+"/ingest/console", "text/plain", strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("client: ingest/console status %d", resp.StatusCode)
	}
	return nil
}

// PushBuffered enqueues one serialized interaction into the polled fallback
// channel.
func (c *Client) PushBuffered(payload []byte) error {
	resp, err := c.HTTP.Post(c.BaseURL+"/ingest/buffer", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("client: ingest/buffer status %d", resp.StatusCode)
	}
	return nil
}

// PushDOMSnapshot sends the initial page markup. The recorder keeps only the
// first non-empty delivery.
func (c *Client) PushDOMSnapshot(html string) (bool, error) {
	resp, err := c.HTTP.Post(c.BaseURL+"/ingest/dom", "text/html", strings.NewReader(html))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("client: ingest/dom status %d", resp.StatusCode)
	}
	var ack struct {
		Kept bool `json:"kept"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return false, err
	}
	return ack.Kept, nil
}
