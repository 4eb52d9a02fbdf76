package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "taskboard-cli/internal/api"
	requestIDHeader = "X-Request-ID"
	sessionCookie   = "session"
	maxErrorBody    = 64 << 10
)

type Options struct {
	BaseURL string
	// ProjectID scopes routes under /projects/{id}; empty selects the legacy single-board routes.
	ProjectID string
	Session   string
	Timeout   time.Duration

	// BreakerFailures consecutive failures open the breaker for BreakerCooldown.
	BreakerFailures int
	BreakerCooldown time.Duration

	HTTPClient     *http.Client
	Logger         logrus.FieldLogger
	TracerProvider trace.TracerProvider
}

// Client talks to the board REST API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	projectID string
	session   string

	hc      *http.Client
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
	tracer  trace.Tracer
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base URL is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL must be http or https, got %q", raw)
	}
	pid := strings.TrimSpace(opts.ProjectID)
	if strings.ContainsAny(pid, "/?#") {
		return nil, fmt.Errorf("api: invalid project id %q", pid)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	var log logrus.FieldLogger = opts.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	failures := opts.BreakerFailures
	if failures <= 0 {
		failures = 3
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 5 * time.Second
	}

	c := &Client{
		base:      base,
		projectID: pid,
		session:   opts.Session,
		hc:        hc,
		log:       log.WithField("component", "api"),
		tracer:    tp.Tracer(tracerName),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "taskboard-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Infof("circuit breaker %s changed from %s to %s", name, from.String(), to.String())
		},
		IsSuccessful: func(err error) bool { return !tripsBreaker(err) },
	})
	return c, nil
}

func (c *Client) ProjectID() string { return c.projectID }

// projectPath prefixes suffix with /projects/{pid} unless the client targets the legacy board.
func (c *Client) projectPath(suffix string) string {
	if c.projectID == "" {
		return suffix
	}
	return "/projects/" + c.projectID + suffix
}

func (c *Client) projectRoute(suffix string) string {
	if c.projectID == "" {
		return suffix
	}
	return "/projects/{pid}" + suffix
}

// do sends one request through the breaker. route is the templated path used
// for span names; path is the concrete one.
func (c *Client) do(ctx context.Context, method, route, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	reqID := uuid.NewString()
	span.SetAttributes(attribute.String("request.id", reqID))
	start := time.Now()

	var status int
	_, err := c.breaker.Execute(func() (any, error) {
		var rtErr error
		status, rtErr = c.roundTrip(ctx, method, path, reqID, in, out)
		return nil, rtErr
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = NetworkError{Method: method, Path: path, Err: err}
	}

	entry := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     status,
		"duration":   time.Since(start).Round(time.Millisecond).String(),
		"request_id": reqID,
	})
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry.WithError(err).Warn("api request failed")
		return err
	}
	entry.Debug("api request")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, reqID string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := sonic.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, ServerError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(b),
		}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, NetworkError{Method: method, Path: path, Err: err}
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return resp.StatusCode, nil
	}
	if err := sonic.Unmarshal(b, out); err != nil {
		return resp.StatusCode, NetworkError{Method: method, Path: path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.StatusCode, nil
}

// errorMessage pulls "error" or "message" out of a JSON error body.
func errorMessage(b []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := sonic.Unmarshal(b, &body); err != nil {
		msg := strings.TrimSpace(string(b))
		if len(msg) > 200 {
			msg = msg[:200] + "…"
		}
		return msg
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
