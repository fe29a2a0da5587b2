// Package forwarder implements the optional HTTP forwarder: posting a
// derived content object (JSON, form-encoded, or raw) to a configured
// webhook destination.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sinqtt-labs/tsbridge/internal/bridgeerr"
)

// Action is one of the HTTP methods the forwarder may issue.
type Action string

const (
	ActionPost  Action = "POST"
	ActionPut   Action = "PUT"
	ActionPatch Action = "PATCH"
)

// ParseAction maps a configured action name to an Action, defaulting to
// POST for anything unrecognized.
func ParseAction(s string) Action {
	switch strings.ToUpper(s) {
	case "PUT":
		return ActionPut
	case "PATCH":
		return ActionPatch
	default:
		return ActionPost
	}
}

// Config configures a Forwarder.
type Config struct {
	Destination string
	Action      Action
	Username    string
	Password    string
}

// Forwarder forwards derived content to a single configured HTTP
// destination.
type Forwarder struct {
	client *http.Client
	cfg    Config
}

func New(cfg Config) *Forwarder {
	return &Forwarder{client: &http.Client{}, cfg: cfg}
}

func (f *Forwarder) hasAuth() bool {
	return f.cfg.Username != "" && f.cfg.Password != ""
}

// ForwardJSON marshals data and sends it as an application/json body.
func (f *Forwarder) ForwardJSON(ctx context.Context, data interface{}) error {
	body, err := json.Marshal(data)
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryForward, "marshaling JSON content", err)
	}
	return f.forward(ctx, body, "application/json")
}

// ForwardForm url-encodes data and sends it as a form body.
func (f *Forwarder) ForwardForm(ctx context.Context, data map[string]string) error {
	values := url.Values{}
	for k, v := range data {
		values.Set(k, v)
	}
	return f.forward(ctx, []byte(values.Encode()), "application/x-www-form-urlencoded")
}

// ForwardRaw sends body verbatim with the given content type.
func (f *Forwarder) ForwardRaw(ctx context.Context, body []byte, contentType string) error {
	return f.forward(ctx, body, contentType)
}

func (f *Forwarder) forward(ctx context.Context, body []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, string(f.cfg.Action), f.cfg.Destination, bytes.NewReader(body))
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryForward, "building request", err)
	}
	req.Header.Set("Content-Type", contentType)
	if f.hasAuth() {
		req.SetBasicAuth(f.cfg.Username, f.cfg.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return bridgeerr.Wrap(bridgeerr.CategoryForward, "sending request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(resp.Body)
	return bridgeerr.Forwardf("HTTP %s to %s failed: %d - %s", f.cfg.Action, f.cfg.Destination, resp.StatusCode, respBody)
}
