// Package inventory talks to the garment inventory service: it submits form
// snapshots and lists stored records, turning every outcome into a
// notification.
package inventory

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

	"github.com/google/uuid"

	"github.com/goliatone/go-scanform/pkg/form"
	"github.com/goliatone/go-scanform/pkg/notify"
)

const (
	// DefaultBaseURL points at a service on the local machine.
	DefaultBaseURL = "http://localhost:3010"
	// ProductsPath is the collection endpoint.
	ProductsPath = "/api/products"
	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Record is one stored garment as returned by the service. Numbers keep their
// textual form as json.Number.
type Record map[string]any

// Receipt describes an accepted submission.
type Receipt struct {
	StatusCode int
	RequestID  string
	// Body is the decoded reply, nil when the service answered with no body.
	Body any
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the service origin, e.g. http://192.168.1.10:3010.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(base); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithProductsPath overrides the collection path.
func WithProductsPath(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.path = "/" + strings.TrimLeft(trimmed, "/")
		}
	}
}

// WithHTTPClient swaps the transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds every request. Zero keeps requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithNotifier sets where outcomes are reported.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithCatalog sets the message templates.
func WithCatalog(catalog *notify.Catalog) Option {
	return func(c *Client) {
		if catalog != nil {
			c.catalog = catalog
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides how request ids are generated.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// Client is safe for concurrent use. It never mutates the form it submits.
type Client struct {
	baseURL   string
	path      string
	http      *http.Client
	timeout   time.Duration
	notifier  notify.Notifier
	catalog   *notify.Catalog
	logger    *slog.Logger
	requestID func() string
}

// New builds a client with defaults plus options.
func New(options ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		path:      ProductsPath,
		http:      http.DefaultClient,
		notifier:  notify.Discard,
		catalog:   notify.MustCatalog(nil),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		requestID: uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Endpoint returns the absolute collection URL.
func (c *Client) Endpoint() string {
	return c.baseURL + c.path
}

// Submit posts every form field, empty or not, as one JSON object. The
// outcome is both notified and returned.
func (c *Client) Submit(ctx context.Context, snapshot form.Snapshot) (Receipt, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		err = fmt.Errorf("inventory: encode submission: %w", err)
		c.fail(ctx, notify.KeySubmitFailure, err, nil)
		return Receipt{}, err
	}

	status, body, id, err := c.do(ctx, http.MethodPost, payload)
	if err != nil {
		err = fmt.Errorf("inventory: submit: %w", err)
		c.fail(ctx, notify.KeySubmitFailure, err, nil)
		return Receipt{}, err
	}
	receipt := Receipt{StatusCode: status, RequestID: id}

	if !success(status) {
		serr := c.statusError(status, body)
		c.logger.Warn("submission rejected", "request_id", id, "status", status)
		c.fail(ctx, notify.KeySubmitFailure, serr, serr.Fields)
		return receipt, serr
	}

	if len(bytes.TrimSpace(body)) > 0 {
		var decoded any
		if err := decode(body, &decoded); err != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidResponse, err)
			c.fail(ctx, notify.KeySubmitFailure, err, nil)
			return receipt, err
		}
		receipt.Body = decoded
	}

	c.logger.Info("garment submitted", "request_id", id, "status", status, "bar_code", snapshot.Get(form.BarCode))
	c.notifier.Notify(ctx, c.catalog.MustRender(notify.KindSuccess, notify.KeySubmitSuccess, map[string]any{
		"code": snapshot.Get(form.BarCode),
	}))
	return receipt, nil
}

type listEnvelope struct {
	Message json.RawMessage `json:"message"`
}

// List fetches every stored record. The message must be a JSON array of
// objects; it is returned without reshaping and also rendered, compact, into
// the success notification. A null, absent or non-array message is reported
// as ErrInvalidResponse.
func (c *Client) List(ctx context.Context) ([]Record, error) {
	status, body, id, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		err = fmt.Errorf("inventory: list: %w", err)
		c.fail(ctx, notify.KeyListFailure, err, nil)
		return nil, err
	}
	if !success(status) {
		serr := c.statusError(status, body)
		c.logger.Warn("listing rejected", "request_id", id, "status", status)
		c.fail(ctx, notify.KeyListFailure, serr, serr.Fields)
		return nil, serr
	}

	var envelope listEnvelope
	if err := decode(body, &envelope); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidResponse, err)
		c.fail(ctx, notify.KeyListFailure, err, nil)
		return nil, err
	}
	if len(envelope.Message) == 0 || bytes.Equal(envelope.Message, []byte("null")) {
		err := fmt.Errorf("%w: missing message", ErrInvalidResponse)
		c.fail(ctx, notify.KeyListFailure, err, nil)
		return nil, err
	}

	var records []Record
	if err := decode(envelope.Message, &records); err != nil {
		err = fmt.Errorf("%w: message is not a list: %w", ErrInvalidResponse, err)
		c.fail(ctx, notify.KeyListFailure, err, nil)
		return nil, err
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, envelope.Message); err != nil {
		compact.Reset()
		compact.Write(envelope.Message)
	}

	c.logger.Info("products listed", "request_id", id, "count", len(records))
	c.notifier.Notify(ctx, c.catalog.MustRender(notify.KindInfo, notify.KeyListSuccess, map[string]any{
		"products": compact.String(),
		"count":    len(records),
	}))
	return records, nil
}

func (c *Client) do(ctx context.Context, method string, payload []byte) (int, []byte, string, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if c.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.Endpoint(), body)
	if err != nil {
		return 0, nil, "", err
	}
	id := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, id)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("inventory request", "method", method, "url", req.URL.String(), "request_id", id)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("inventory request failed", "method", method, "request_id", id, "error", err)
		return 0, nil, id, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, id, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, id, nil
}

type errorEnvelope struct {
	Errors map[string][]string `json:"errors"`
}

func (c *Client) statusError(status int, body []byte) StatusError {
	serr := StatusError{
		Code: status,
		Err:  fmt.Errorf("inventory: unexpected status %d %s", status, http.StatusText(status)),
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
		serr.Fields = envelope.Errors
	}
	return serr
}

func (c *Client) fail(ctx context.Context, key notify.MessageKey, err error, fields map[string][]string) {
	n := c.catalog.MustRender(notify.KindFailure, key, map[string]any{"error": err.Error()})
	n.Err = err
	if len(fields) > 0 {
		mapped := MapFieldErrors(fields)
		n.Fields = make(map[string][]string, len(mapped.Fields)+1)
		for f, msgs := range mapped.Fields {
			n.Fields[string(f)] = msgs
		}
		if len(mapped.Form) > 0 {
			n.Fields["_form"] = mapped.Form
		}
	}
	c.notifier.Notify(ctx, n)
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func decode(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}
