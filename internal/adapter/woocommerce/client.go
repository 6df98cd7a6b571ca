package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SessionHeader carries the upstream cart session in both directions.
const SessionHeader = "woocommerce-session"

const (
	sessionPrefix = "Session "

	defaultTimeout         = 10 * time.Second
	defaultMaxFailures     = 5
	defaultBreakerInterval = time.Minute
	defaultOpenTimeout     = 30 * time.Second
	maxResponseSize        = 8 << 20
)

type (
	request struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables,omitempty"`
	}

	response struct {
		Data    json.RawMessage `json:"data"`
		Errors  []graphQLError  `json:"errors"`
		session string
	}

	graphQLError struct {
		Message string `json:"message"`
	}
)

type Option func(*Client) error

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("nil http client")
		}
		c.httpClient = hc
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("invalid timeout %s", d)
		}
		c.httpClient.Timeout = d
		return nil
	}
}

// WithBreaker tunes the circuit breaker: it opens after maxFailures
// consecutive transport failures and half-opens after openTimeout.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(c *Client) error {
		if maxFailures == 0 || openTimeout <= 0 {
			return errors.New("invalid breaker settings")
		}
		c.maxFailures = maxFailures
		c.openTimeout = openTimeout
		return nil
	}
}

// Client talks to the WPGraphQL endpoint.
type Client struct {
	endpoint    string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[response]
	maxFailures uint32
	openTimeout time.Duration
}

// NewClient returns a client posting to "<baseURL>/graphql".
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	const op = "woocommerce.NewClient"

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}

	c := &Client{
		endpoint: baseURL + "/graphql",
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxFailures: defaultMaxFailures,
		openTimeout: defaultOpenTimeout,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:     "woocommerce",
		Interval: defaultBreakerInterval,
		Timeout:  c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn(
				"circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String(),
			)
		},
	})

	return c, nil
}

// Endpoint is the upstream GraphQL URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ping issues a trivial query.
func (c *Client) Ping(ctx context.Context) error {
	const op = "Client.Ping"
	if _, err := c.do(ctx, pingQuery, nil, "", nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// do runs one GraphQL operation and decodes data into out.
//
// It returns the session token reported by the upstream, or the
// given one when the response carries none.
func (c *Client) do(
	ctx context.Context,
	query string, vars map[string]any, session string, out any,
) (string, error) {
	resp, err := c.breaker.Execute(func() (response, error) {
		return c.roundTrip(ctx, query, vars, session)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return session, fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		return session, err
	}

	if resp.session != "" {
		session = resp.session
	}

	if len(resp.Errors) != 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return session, &domain.UpstreamError{Messages: msgs}
	}

	if out == nil {
		return session, nil
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return session, fmt.Errorf(
			"response without data: %w", domain.ErrContractViolation,
		)
	}

	if err := json.Unmarshal(resp.Data, out); err != nil {
		return session, fmt.Errorf(
			"decode data: %w: %w", domain.ErrContractViolation, err,
		)
	}
	return session, nil
}

// roundTrip reports only transport failures as errors so that
// application errors never trip the breaker.
func (c *Client) roundTrip(
	ctx context.Context, query string, vars map[string]any, session string,
) (response, error) {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return response{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.endpoint, bytes.NewReader(body),
	)
	if err != nil {
		return response{}, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, sessionPrefix+session)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return response{}, fmt.Errorf("%w: %w", domain.ErrTransport, ctxErr)
		}
		return response{}, fmt.Errorf("%w: %w", domain.ErrTransport, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return response{}, fmt.Errorf("%w: read body: %w", domain.ErrTransport, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return response{}, fmt.Errorf(
			"%w: unexpected status %d", domain.ErrTransport, res.StatusCode,
		)
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return response{}, fmt.Errorf(
			"%w: decode body: %w", domain.ErrTransport, err,
		)
	}
	out.session = parseSession(res.Header.Get(SessionHeader))
	return out, nil
}

func parseSession(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimSpace(strings.TrimPrefix(v, sessionPrefix))
}
