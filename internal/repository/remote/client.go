// Package remote implements the repositories against the upstream REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/apperror"
	"github.com/noah-isme/plaksha-connect/internal/observability"
	"github.com/noah-isme/plaksha-connect/internal/session"
)

// errAbsent marks a 404 on a lookup.
var errAbsent = errors.New("remote: record absent")

// Client issues authenticated JSON requests to the upstream API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient targets baseURL, for example http://localhost:8000/api.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "remote_client").Logger(),
	}
}

// call describes one upstream request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// lookup turns a 404 into errAbsent instead of NotFound.
	lookup bool
	// failure is the message used when the upstream gives none.
	failure string
}

func (c *Client) do(ctx context.Context, spec call) error {
	start := time.Now()
	status, err := c.send(ctx, spec)
	outcome := "ok"
	if err != nil && !errors.Is(err, errAbsent) {
		outcome = string(apperror.KindOf(err))
	}
	observability.RemoteRequests().WithLabelValues(spec.method, outcome).Inc()
	observability.RemoteLatency().WithLabelValues(spec.method).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, errAbsent) {
		c.logger.Debug().Err(err).Str("method", spec.method).Str("path", spec.path).Int("status", status).Msg("upstream call failed")
	}
	return err
}

func (c *Client) send(ctx context.Context, spec call) (int, error) {
	target := c.baseURL + spec.path
	if len(spec.query) > 0 {
		target += "?" + spec.query.Encode()
	}

	var body io.Reader
	if spec.body != nil {
		payload, err := json.Marshal(spec.body)
		if err != nil {
			return 0, apperror.Wrap(err, apperror.KindValidation, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, spec.method, target, body)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.KindNetwork, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := session.TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if correlation := session.CorrelationFromContext(ctx); correlation != "" {
		req.Header.Set(session.CorrelationHeader, correlation)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.KindNetwork, "network error: unable to reach the server")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, apperror.Wrap(err, apperror.KindNetwork, "network error: incomplete response")
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if spec.out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return resp.StatusCode, nil
		}
		if err := json.Unmarshal(raw, spec.out); err != nil {
			return resp.StatusCode, apperror.Wrap(err, apperror.KindServer, "invalid response from server")
		}
		return resp.StatusCode, nil
	}
	return resp.StatusCode, mapStatus(resp.StatusCode, raw, spec)
}

func mapStatus(status int, raw []byte, spec call) error {
	message := upstreamMessage(raw)
	pick := func(fallback string) string {
		if message != "" {
			return message
		}
		return fallback
	}
	switch {
	case status == http.StatusUnauthorized:
		return apperror.WithStatus(apperror.KindUnauthorized, status, pick("not authenticated"))
	case status == http.StatusForbidden:
		return apperror.WithStatus(apperror.KindForbidden, status, pick("not allowed"))
	case status == http.StatusNotFound && spec.lookup:
		return errAbsent
	case status == http.StatusNotFound:
		return apperror.WithStatus(apperror.KindNotFound, status, pick("not found"))
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperror.New(apperror.KindValidation, pick("invalid request"))
	case status == http.StatusConflict:
		return apperror.New(apperror.KindConflict, pick("conflict"))
	default:
		return apperror.WithStatus(apperror.KindServer, status, pick(spec.failure))
	}
}

// upstreamMessage extracts "detail" or "message" from an error body. A
// validation detail list is flattened into one line.
func upstreamMessage(raw []byte) string {
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var text string
		if err := json.Unmarshal(body.Detail, &text); err == nil {
			return text
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(body.Detail, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if item.Msg != "" {
					parts = append(parts, item.Msg)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return body.Message
}

// find runs a lookup, mapping a 404 to (nil, nil).
func find[T any](ctx context.Context, c *Client, path, failure string) (*T, error) {
	var out T
	err := c.do(ctx, call{method: http.MethodGet, path: path, out: &out, lookup: true, failure: failure})
	if errors.Is(err, errAbsent) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// list runs a collection GET.
func list[T any](ctx context.Context, c *Client, path string, query url.Values, failure string) ([]T, error) {
	var out []T
	if err := c.do(ctx, call{method: http.MethodGet, path: path, query: query, out: &out, failure: failure}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// submit runs a mutation and decodes the response into T.
func submit[T any](ctx context.Context, c *Client, method, path string, body any, failure string) (*T, error) {
	var out T
	if err := c.do(ctx, call{method: method, path: path, body: body, out: &out, failure: failure}); err != nil {
		return nil, err
	}
	return &out, nil
}

// exec runs a mutation whose response body is ignored.
func exec(ctx context.Context, c *Client, method, path string, body any, failure string) error {
	return c.do(ctx, call{method: method, path: path, body: body, failure: failure})
}

func segment(id string) string {
	return url.PathEscape(id)
}

func queryOf(pairs ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			q.Set(pairs[i], pairs[i+1])
		}
	}
	return q
}

func failed(action string) string {
	return fmt.Sprintf("failed to %s", action)
}

func matches(want, got string) bool {
	return want == "" || want == got
}

func containsFold(query string, fields ...string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func keep[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}
