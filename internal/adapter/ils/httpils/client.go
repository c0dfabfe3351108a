// Package httpils adapts a host system exposing a JSON/REST API to the
// ils.Client contract.
package httpils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/domain"
	"github.com/openlibraryenvironment/dcb-service-sub001/internal/ils"
)

// ConfigAPIKey is the HostLms.ClientConfig key holding the bearer token.
const ConfigAPIKey = "api_key"

const maxBodyBytes = 1 << 20

// Options tune every client built by a constructor.
type Options struct {
	Timeout            time.Duration
	RequestsPerSecond  float64
	Burst              int
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration
	// Retries is how many extra attempts an idempotent call gets after a
	// transient failure. Zero disables retrying.
	Retries      int
	RetryBackoff time.Duration
}

// Client talks to one host system over HTTP.
type Client struct {
	host       domain.HostLms
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retries    int
	backoff    time.Duration
	table      *ils.StatusTable
	tracer     trace.Tracer
	log        *slog.Logger
}

var _ ils.Client = (*Client)(nil)

// New creates a Client for host.
func New(host domain.HostLms, opts Options, log *slog.Logger) (*Client, error) {
	if host.BaseURL == "" {
		return nil, fmt.Errorf("httpils: host %s has no base url", host.Code)
	}
	if _, err := url.Parse(host.BaseURL); err != nil {
		return nil, fmt.Errorf("httpils: host %s: parse base url: %w", host.Code, err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	c := &Client{
		host:       host,
		baseURL:    strings.TrimRight(host.BaseURL, "/"),
		apiKey:     host.ClientConfig[ConfigAPIKey],
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		retries:    max(opts.Retries, 0),
		backoff:    backoff,
		table:      ils.NewStatusTable(host),
		tracer:     otel.Tracer("dcb/httpils"),
		log:        log.With("adapter", "httpils", "host_lms", host.Code),
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ils-" + host.Code,
		Timeout: opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Only transient failures count against the host.
		IsSuccessful: func(err error) bool {
			return err == nil || !ils.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return c, nil
}

// NewConstructor returns an ils.Constructor producing HTTP clients.
func NewConstructor(opts Options, log *slog.Logger) ils.Constructor {
	return func(host domain.HostLms) (ils.Client, error) {
		return New(host, opts, log)
	}
}

func (c *Client) HostLms() domain.HostLms { return c.host }

// ---------------------------------------------------------------------------
// Holds
// ---------------------------------------------------------------------------

func (c *Client) PlaceHoldRequest(ctx context.Context, cmd ils.PlaceHoldCommand) (ils.LocalRequest, error) {
	body := holdRequest{
		RecordType:      string(cmd.RecordType),
		RecordNumber:    cmd.RecordNumber,
		PickupLocation:  cmd.PickupLocation,
		Note:            cmd.Note,
		PatronRequestID: cmd.PatronRequestID.String(),
	}
	var resp holdResponse
	path := "/patrons/" + url.PathEscape(cmd.PatronLocalID) + "/holds"
	if err := c.do(ctx, "placeHoldRequest", http.MethodPost, path, body, &resp); err != nil {
		return ils.LocalRequest{}, err
	}
	return ils.LocalRequest{LocalID: resp.ID, LocalStatus: resp.Status}, nil
}

func (c *Client) GetHold(ctx context.Context, holdID string) (ils.Hold, error) {
	var resp holdResponse
	if err := c.do(ctx, "getHold", http.MethodGet, "/holds/"+url.PathEscape(holdID), nil, &resp); err != nil {
		return ils.Hold{}, err
	}
	return resp.toHold(), nil
}

// ---------------------------------------------------------------------------
// Patrons
// ---------------------------------------------------------------------------

func (c *Client) GetPatronByLocalID(ctx context.Context, localID string) (ils.Patron, error) {
	var resp patronDTO
	if err := c.do(ctx, "getPatronByLocalId", http.MethodGet, "/patrons/"+url.PathEscape(localID), nil, &resp); err != nil {
		return ils.Patron{}, err
	}
	return resp.toPatron(), nil
}

func (c *Client) FindVirtualPatron(ctx context.Context, uniqueID string) (ils.Patron, error) {
	var resp []patronDTO
	path := "/patrons?uniqueId=" + url.QueryEscape(uniqueID)
	if err := c.do(ctx, "findVirtualPatron", http.MethodGet, path, nil, &resp); err != nil {
		return ils.Patron{}, err
	}
	if len(resp) == 0 {
		return ils.Patron{}, ils.NotFound(c.host.Code, "findVirtualPatron", "patron "+uniqueID)
	}
	return resp[0].toPatron(), nil
}

func (c *Client) CreatePatron(ctx context.Context, patron ils.Patron) (string, error) {
	var resp idResponse
	if err := c.do(ctx, "createPatron", http.MethodPost, "/patrons", fromPatron(patron), &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) UpdatePatron(ctx context.Context, localID, patronType string) (ils.Patron, error) {
	var resp patronDTO
	body := map[string]string{"patronType": patronType}
	if err := c.do(ctx, "updatePatron", http.MethodPut, "/patrons/"+url.PathEscape(localID), body, &resp); err != nil {
		return ils.Patron{}, err
	}
	return resp.toPatron(), nil
}

func (c *Client) PatronAuth(ctx context.Context, profile, principal, secret string) (ils.Patron, error) {
	var resp patronDTO
	body := map[string]string{"profile": profile, "principal": principal, "secret": secret}
	if err := c.do(ctx, "patronAuth", http.MethodPost, "/patrons/auth", body, &resp); err != nil {
		return ils.Patron{}, err
	}
	return resp.toPatron(), nil
}

// ---------------------------------------------------------------------------
// Bibs and items
// ---------------------------------------------------------------------------

func (c *Client) CreateBib(ctx context.Context, bib ils.Bib) (string, error) {
	var resp idResponse
	body := map[string]string{"title": bib.Title, "author": bib.Author}
	if err := c.do(ctx, "createBib", http.MethodPost, "/bibs", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) CreateItem(ctx context.Context, cmd ils.CreateItemCommand) (ils.CreatedItem, error) {
	body := createItemRequest{
		BibID:           cmd.BibID,
		LocationCode:    cmd.LocationCode,
		Barcode:         cmd.Barcode,
		ItemType:        cmd.CanonicalItemType,
		PatronRequestID: cmd.PatronRequestID.String(),
	}
	var resp holdResponse
	if err := c.do(ctx, "createItem", http.MethodPost, "/items", body, &resp); err != nil {
		return ils.CreatedItem{}, err
	}
	return ils.CreatedItem{LocalID: resp.ID, LocalStatus: resp.Status}, nil
}

func (c *Client) GetItems(ctx context.Context, bibID string) ([]ils.Item, error) {
	var resp []itemDTO
	if err := c.do(ctx, "getItems", http.MethodGet, "/bibs/"+url.PathEscape(bibID)+"/items", nil, &resp); err != nil {
		return nil, err
	}
	items := make([]ils.Item, len(resp))
	for i, dto := range resp {
		items[i] = dto.toItem(bibID)
	}
	return items, nil
}

func (c *Client) GetItem(ctx context.Context, itemID string) (ils.Item, error) {
	var resp itemDTO
	if err := c.do(ctx, "getItem", http.MethodGet, "/items/"+url.PathEscape(itemID), nil, &resp); err != nil {
		return ils.Item{}, err
	}
	return resp.toItem(resp.BibID), nil
}

func (c *Client) UpdateItemStatus(ctx context.Context, itemID string, status domain.ItemStatus) error {
	local, ok := c.table.LocalItemStatus(status)
	if !ok {
		return nil
	}
	body := map[string]string{"status": local}
	return c.bestEffort(c.do(ctx, "updateItemStatus", http.MethodPut, "/items/"+url.PathEscape(itemID)+"/status", body, nil))
}

func (c *Client) CheckOutItemToPatron(ctx context.Context, itemID, patronBarcode string) error {
	body := map[string]string{"patronBarcode": patronBarcode}
	return c.bestEffort(c.do(ctx, "checkOutItemToPatron", http.MethodPost, "/items/"+url.PathEscape(itemID)+"/checkout", body, nil))
}

func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.bestEffort(c.do(ctx, "deleteItem", http.MethodDelete, "/items/"+url.PathEscape(itemID), nil, nil))
}

func (c *Client) DeleteBib(ctx context.Context, bibID string) error {
	return c.bestEffort(c.do(ctx, "deleteBib", http.MethodDelete, "/bibs/"+url.PathEscape(bibID), nil, nil))
}

// bestEffort treats missing records and unimplemented endpoints as success.
func (c *Client) bestEffort(err error) error {
	var e *ils.Error
	if errors.As(err, &e) && (e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusNotImplemented) {
		return nil
	}
	return err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// do sends a request, retrying idempotent methods on transient failures, and
// decodes the JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	reqURL := c.baseURL + path

	ctx, span := c.tracer.Start(ctx, "ils."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("ils.host_lms", c.host.Code),
			attribute.String("http.request.method", method),
			attribute.String("url.full", reqURL),
		),
	)
	defer span.End()

	fail := func(err *ils.Error) error {
		err.System, err.Op, err.Method, err.URL = c.host.Code, op, method, reqURL
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Kind.String())
		return err
	}

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fail(&ils.Error{Kind: ils.KindFatal, Err: fmt.Errorf("encode request: %w", err)})
		}
		payload = b
	}

	attempts := 1
	if idempotent(method) {
		attempts += c.retries
	}

	var body []byte
	for attempt := 1; ; attempt++ {
		c.log.DebugContext(ctx, "ils request",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("url", reqURL),
			slog.Int("attempt", attempt),
		)

		var err *ils.Error
		body, err = c.attempt(ctx, method, reqURL, payload)
		if err == nil {
			span.SetAttributes(attribute.Int("ils.attempts", attempt))
			break
		}
		if attempt >= attempts || !retryable(err) {
			span.SetAttributes(attribute.Int("ils.attempts", attempt))
			return fail(err)
		}

		wait := c.backoff * time.Duration(attempt)
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("ils.attempt", attempt),
			attribute.Int("http.response.status_code", err.StatusCode),
			attribute.String("error", err.Error()),
		))
		c.log.WarnContext(ctx, "ils retry",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fail(err)
		case <-timer.C:
		}
	}

	span.SetAttributes(attribute.Int("http.response.body.size", len(body)))
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fail(&ils.Error{Kind: ils.KindFatal, Body: truncate(body), Err: fmt.Errorf("decode response: %w", err)})
	}
	return nil
}

// attempt sends one request through the limiter and breaker.
func (c *Client) attempt(ctx context.Context, method, reqURL string, payload []byte) ([]byte, *ils.Error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &ils.Error{Kind: ils.KindTransient, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, reqURL, payload)
	})
	if err != nil {
		var ilsErr *ils.Error
		if errors.As(err, &ilsErr) {
			return nil, ilsErr
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ils.Error{Kind: ils.KindTransient, Err: err}
		}
		return nil, &ils.Error{Kind: ils.KindFatal, Err: err}
	}
	body, _ := result.([]byte)
	return body, nil
}

// retryable reports whether another attempt could succeed. An open breaker
// or an exhausted context will not change before the next attempt.
func retryable(err *ils.Error) bool {
	if err.Kind != ils.KindTransient {
		return false
	}
	return !errors.Is(err, gobreaker.ErrOpenState) &&
		!errors.Is(err, gobreaker.ErrTooManyRequests) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

func (c *Client) roundTrip(ctx context.Context, method, reqURL string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, &ils.Error{Kind: ils.KindFatal, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ils.Error{Kind: ils.KindTransient, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &ils.Error{Kind: ils.KindTransient, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, &ils.Error{
		Kind:       classify(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Body:       truncate(body),
	}
}

func classify(status int) ils.Kind {
	switch {
	case status == http.StatusNotFound:
		return ils.KindNotFound
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout, status >= 500:
		return ils.KindTransient
	default:
		return ils.KindFatal
	}
}

func truncate(body []byte) string {
	return domain.TruncateMessage(strings.TrimSpace(string(body)), 4000)
}
