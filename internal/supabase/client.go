package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	resty "github.com/go-resty/resty/v2"
)

// Client talks to the PostgREST gateway of a Supabase project using the
// service-role key, so row-level security is enforced by the procedures
// themselves rather than by the caller's session.
type Client struct {
	http *resty.Client
}

type Config struct {
	URL            string // https://<ref>.supabase.co
	ServiceRoleKey string
	Timeout        time.Duration
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" || cfg.ServiceRoleKey == "" {
		return nil, errors.New("supabase: url and service role key are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.ServiceRoleKey).
		SetAuthToken(cfg.ServiceRoleKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: h}, nil
}

// Error is the PostgREST error body.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: rpc failed (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: rpc failed (status %d): %s", e.Status, e.Message)
}

// RPC invokes POST /rest/v1/rpc/{fn} as the service role with params as the
// JSON body and decodes the response into out. out may be nil.
func (c *Client) RPC(ctx context.Context, fn string, params any, out any) error {
	return c.call(ctx, "", fn, params, out)
}

// RPCAs is RPC on behalf of an end user: their access token replaces the
// service-role bearer, so row-level security applies to the call.
func (c *Client) RPCAs(ctx context.Context, accessToken, fn string, params any, out any) error {
	if accessToken == "" {
		return errors.New("supabase: access token is required")
	}
	return c.call(ctx, accessToken, fn, params, out)
}

func (c *Client) call(ctx context.Context, accessToken, fn string, params any, out any) error {
	if fn == "" {
		return errors.New("supabase: rpc name is required")
	}

	var raw json.RawMessage
	apiErr := &Error{}
	req := c.http.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&raw).
		SetError(apiErr)
	if accessToken != "" {
		req.SetAuthToken(accessToken)
	}

	resp, err := req.Post("/rest/v1/rpc/" + fn)
	if err != nil {
		return fmt.Errorf("supabase: rpc %s: %w", fn, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: decode rpc %s: %w", fn, err)
	}
	return nil
}
