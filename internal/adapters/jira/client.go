// Package jira talks to the Jira REST API and plugs Jira instances into the tracking service
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "issuebridge/internal/platform/errors"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	apiPath   = "/rest/api/2"
	userAgent = "issuebridge/1.0"
)

// Retry bounds the backoff applied to transient failures
type Retry struct {
	Initial    time.Duration
	MaxElapsed time.Duration
	MaxRetries uint64
}

// DefaultRetry is used when ClientConfig.Retry is zero
var DefaultRetry = Retry{Initial: 500 * time.Millisecond, MaxElapsed: 30 * time.Second, MaxRetries: 5}

// ClientConfig configures a Client; an empty Username selects bearer auth
type ClientConfig struct {
	URL        string
	Username   string
	Token      string
	RatePerSec float64 // <= 0 disables limiting
	Burst      int
	Retry      Retry
	HTTPClient *http.Client
}

// Client is a rate limited Jira REST client retrying 429, 5xx and network failures
type Client struct {
	base    string
	user    string
	token   string
	http    *http.Client
	limiter *rate.Limiter
	retry   Retry
}

// NewClient returns a client for cfg.URL
func NewClient(cfg ClientConfig) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, perr.WithField(perr.InvalidArgf("jira url %q is not absolute", cfg.URL), "url")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if burst <= 0 {
		burst = 1
	}
	r := cfg.Retry
	if r == (Retry{}) {
		r = DefaultRetry
	}
	return &Client{
		base:    u.String(),
		user:    cfg.Username,
		token:   cfg.Token,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		retry:   r,
	}, nil
}

// BaseURL is the instance URL without a trailing slash
func (c *Client) BaseURL() string { return c.base }

// Transition is one workflow transition available on an issue
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

// AddComment posts body as a new comment on issueKey
func (c *Client) AddComment(ctx context.Context, issueKey, body string) error {
	payload, _ := json.Marshal(map[string]string{"body": body})
	_, err := c.do(ctx, http.MethodPost, issuePath(issueKey, "comment"), payload)
	return err
}

// Transitions lists the transitions currently available on issueKey
func (c *Client) Transitions(ctx context.Context, issueKey string) ([]Transition, error) {
	body, err := c.do(ctx, http.MethodGet, issuePath(issueKey, "transitions"), nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Transitions []Transition `json:"transitions"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, perr.Remotef(err, "decode transitions of %s", issueKey)
	}
	return out.Transitions, nil
}

// DoTransition moves issueKey through the transition with id
func (c *Client) DoTransition(ctx context.Context, issueKey, id string) error {
	payload, _ := json.Marshal(map[string]any{"transition": map[string]string{"id": id}})
	_, err := c.do(ctx, http.MethodPost, issuePath(issueKey, "transitions"), payload)
	return err
}

func issuePath(key, tail string) string {
	return apiPath + "/issue/" + url.PathEscape(key) + "/" + tail
}

func (c *Client) backoff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retry.Initial
	eb.MaxElapsedTime = c.retry.MaxElapsed
	var b backoff.BackOff = eb
	if c.retry.MaxRetries > 0 {
		b = backoff.WithMaxRetries(b, c.retry.MaxRetries)
	}
	return backoff.WithContext(b, ctx)
}

// do runs one request with rate limiting and retries; it returns the response body
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var out []byte
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(perr.Wrap(err, perr.ErrorCodeUnavailable, "jira rate limiter"))
		}
		body, err := c.once(ctx, method, path, payload)
		if err != nil {
			if retryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = body
		return nil
	}
	if err := backoff.Retry(op, c.backoff(ctx)); err != nil {
		var pe *backoff.PermanentError
		if errors.As(err, &pe) {
			return nil, pe.Err
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build jira request")
	}
	c.auth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(perr.Wrap(err, perr.ErrorCodeUnavailable, "jira request canceled"))
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "read jira response")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, statusError(method, path, resp.StatusCode, body)
}

func (c *Client) auth(req *http.Request) {
	if c.token == "" {
		return
	}
	if c.user != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.user+":"+c.token)))
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
}

func statusError(method, path string, status int, body []byte) error {
	msg := fmt.Sprintf("jira %s %s returned %d", method, path, status)
	if s := strings.TrimSpace(string(body)); s != "" {
		if len(s) > 256 {
			s = s[:256]
		}
		msg += ": " + s
	}
	switch {
	case status == http.StatusTooManyRequests:
		return perr.New(perr.ErrorCodeTooManyRequests, msg)
	case status >= 500:
		return perr.New(perr.ErrorCodeUnavailable, msg)
	case status == http.StatusNotFound:
		return perr.New(perr.ErrorCodeNotFound, msg)
	case status == http.StatusUnauthorized:
		return perr.New(perr.ErrorCodeUnauthorized, msg)
	case status == http.StatusForbidden:
		return perr.New(perr.ErrorCodeForbidden, msg)
	case status == http.StatusBadRequest:
		return perr.New(perr.ErrorCodeInvalidArgument, msg)
	}
	return perr.New(perr.ErrorCodeRemote, msg)
}

func retryable(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeTooManyRequests, perr.ErrorCodeUnavailable:
		return true
	}
	return false
}
