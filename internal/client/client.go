// Package client talks to the hierarchy store over HTTP.
//
// The store is a black box exposing two operations: fetch the whole tree and
// change one employee's manager. Retries and timeouts are left to the
// underlying http.Client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orgtree/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request id that the store echoes in its logs.
const RequestIDHeader = "X-Request-Id"

const maxBodyBytes = 8 << 20

// Client is an HTTP client for the hierarchy store API.
type Client struct {
	base *url.URL
	http *http.Client
	log  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client for the API rooted at baseURL (for example
// "http://127.0.0.1:8000/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("client: base url is empty")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base: u,
		http: &http.Client{Timeout: 10 * time.Second},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// FetchTree retrieves the whole hierarchy in one round trip.
func (c *Client) FetchTree(ctx context.Context) (model.Employee, error) {
	return c.fetch(ctx, "/employees/tree")
}

// FetchSubtree retrieves the hierarchy below (and including) one employee.
func (c *Client) FetchSubtree(ctx context.Context, employeeID int64) (model.Employee, error) {
	return c.fetch(ctx, "/employees/"+strconv.FormatInt(employeeID, 10)+"/tree")
}

// FetchSnapshot retrieves the hierarchy and checks its invariants. A response
// that does not form a valid tree is reported as a FetchError.
func (c *Client) FetchSnapshot(ctx context.Context) (*model.Tree, error) {
	root, err := c.FetchTree(ctx)
	if err != nil {
		return nil, err
	}
	t, err := model.NewTree(root)
	if err != nil {
		return nil, &FetchError{Status: http.StatusOK, Err: err}
	}
	return t, nil
}

func (c *Client) fetch(ctx context.Context, path string) (model.Employee, error) {
	var root model.Employee
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return root, &FetchError{Err: err}
	}
	res, err := c.do(req)
	if err != nil {
		return root, &FetchError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return root, &FetchError{Status: res.StatusCode, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return root, &FetchError{Status: res.StatusCode, Detail: decodeDetail(body, res.StatusCode)}
	}
	if err := json.Unmarshal(body, &root); err != nil {
		return root, &FetchError{Status: res.StatusCode, Err: fmt.Errorf("decode tree: %w", err)}
	}
	return root, nil
}

type updateManagerBody struct {
	EmployeeID int64  `json:"employee_id"`
	ManagerID  *int64 `json:"manager_id"`
}

type messageBody struct {
	Message string `json:"message"`
}

// UpdateManager asks the store to make managerID the manager of employeeID. A
// nil managerID asks for a promotion to the top level. On success it returns
// the store's confirmation message.
func (c *Client) UpdateManager(ctx context.Context, employeeID int64, managerID *int64) (string, error) {
	payload, err := json.Marshal(updateManagerBody{EmployeeID: employeeID, ManagerID: managerID})
	if err != nil {
		return "", &RequestError{Detail: err.Error(), Err: err}
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/employees/update-manager", bytes.NewReader(payload))
	if err != nil {
		return "", &RequestError{Detail: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(req)
	if err != nil {
		return "", &RequestError{Detail: transportMessage(err), Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", &RequestError{Status: res.StatusCode, Detail: transportMessage(err), Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &RequestError{Status: res.StatusCode, Detail: decodeDetail(body, res.StatusCode)}
	}
	var msg messageBody
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", &RequestError{Status: res.StatusCode, Detail: "invalid response from server", Err: err}
	}
	return msg.Message, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	res, err := c.http.Do(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
		zap.Duration("took", time.Since(start)),
	}
	if err != nil {
		c.log.Warn("store request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	c.log.Debug("store request", append(fields, zap.Int("status", res.StatusCode))...)
	return res, nil
}

// decodeDetail extracts the store's "detail" field. Non-string details (for
// example validation error lists) are passed through as raw JSON.
func decodeDetail(body []byte, status int) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Detail) > 0 && string(env.Detail) != "null" {
		var s string
		if err := json.Unmarshal(env.Detail, &s); err == nil {
			return s
		}
		return string(env.Detail)
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	if t := http.StatusText(status); t != "" {
		return fmt.Sprintf("%d %s", status, t)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func transportMessage(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return "the server did not respond in time"
		}
		if errors.Is(ue.Err, context.Canceled) {
			return "request canceled"
		}
		return "could not reach the server: " + ue.Err.Error()
	}
	return err.Error()
}
