// Package client talks to the stock API over HTTP and satisfies staging.Backend.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gochicken/internal/staging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// ErrUnexpectedStatus is returned for any non-2xx answer.
var ErrUnexpectedStatus = errors.New("unexpected status")

const operatorHeader = "X-Operator"

// Branch is the subset of the branch resource stockctl needs.
type Branch struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

type Client struct {
	baseURL  string
	timeout  time.Duration
	operator string
	dial     fasthttp.DialFunc
}

type Option func(*Client)

// WithTimeout bounds requests whose context carries no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithOperator fills the audit columns on the server.
func WithOperator(name string) Option {
	return func(c *Client) { c.operator = name }
}

// WithDialer replaces the TCP dialer, e.g. with an in-memory listener.
func WithDialer(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.dial = dial }
}

// New expects baseURL without a trailing slash, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ staging.Backend = (*Client)(nil)

// FetchStocks returns the authoritative stock list of a branch.
func (c *Client) FetchStocks(ctx context.Context, branchID uuid.UUID) ([]staging.StockRow, error) {
	var rows []staging.StockRow
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/branches/%s/stocks", branchID)), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStock sends the absolute quantity for one row.
func (c *Client) UpdateStock(ctx context.Context, u staging.StockUpdate) error {
	a := fiber.Put(c.url("/api/v1/stocks/%s", u.ID))
	a.JSON(u)
	return c.do(ctx, a, nil)
}

func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	var branches []Branch
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/branches")), &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

func (c *Client) url(format string, args ...interface{}) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// do runs the agent and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, a *fiber.Agent, out interface{}) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			fiber.ReleaseAgent(a)
			return context.DeadlineExceeded
		}
	}
	a.Timeout(timeout)
	if c.operator != "" {
		a.Set(operatorHeader, c.operator)
	}
	if c.dial != nil && a.HostClient != nil {
		a.HostClient.Dial = c.dial
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if code < 200 || code > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, code, apiErr.Error)
		}
		return fmt.Errorf("%w %d", ErrUnexpectedStatus, code)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
