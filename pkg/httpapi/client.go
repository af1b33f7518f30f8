package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/wrightlabs/pagewright/pkg/abilities"
)

// Client invokes abilities over the HTTP API. It satisfies the orchestration
// loop's invoker seam, so a loop can run against a remote ability server.
type Client struct {
	baseURL    string
	principal  abilities.Principal
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithClientPrincipal(p abilities.Principal) ClientOption {
	return func(c *Client) { c.principal = p }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Invoke(ctx context.Context, call abilities.Call) (*abilities.Result, *abilities.AbilityError) {
	body, err := json.Marshal(runRequest{Input: call.Input})
	if err != nil {
		return nil, abilities.NewExecutionError(call.Name, errors.Wrap(err, "encode request"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.runURL(call.Name), bytes.NewReader(body))
	if err != nil {
		return nil, abilities.NewTransientError(call.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.principal.ID != "" {
		req.Header.Set(HeaderPrincipal, c.principal.ID)
	}
	if len(c.principal.Capabilities) > 0 {
		req.Header.Set(HeaderCapabilities, strings.Join(c.principal.Capabilities, ","))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, abilities.NewTransientError(call.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var envelope abilities.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, abilities.NewExecutionError(call.Name, errors.Wrap(err, "decode response"))
	}
	if !envelope.Success {
		if envelope.Error != nil {
			return nil, envelope.Error
		}
		return nil, abilities.NewExecutionError(call.Name, errors.Errorf("ability server returned status %d", resp.StatusCode))
	}
	return &abilities.Result{
		Data:                    envelope.Data,
		RequiresClientExecution: envelope.RequiresClientExecution,
		ClientCommand:           envelope.ClientCommand,
	}, nil
}

// runURL escapes each segment of the ability name so names stay confined to
// their own path position on the server's route.
func (c *Client) runURL(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/api/abilities/" + strings.Join(segments, "/") + "/run"
}
