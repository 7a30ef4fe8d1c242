// Package client talks to the subject service over JSON/HTTP.
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
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/visitwatch/internal/models"
)

const (
	DefaultTimeout = 10 * time.Second

	OpFetch       = "fetch"
	OpFetchOne    = "fetch_one"
	OpRecordVisit = "record_visit"
	OpImport      = "import"

	subjectsPath = "/subjects"
	maxErrorBody = 4 << 10
)

// Client is the subject service client. It satisfies recorder.Remote.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%w: api base url is empty", models.ErrInvalidArgument)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid api base url: %v", models.ErrInvalidArgument, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: api base url must be http or https, got %q", models.ErrInvalidArgument, baseURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// FetchSubjects lists every subject.
func (c *Client) FetchSubjects(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := c.do(ctx, OpFetch, http.MethodGet, subjectsPath, nil, &subjects); err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	c.logger.Debug().Int("count", len(subjects)).Msg("fetched subjects")
	return subjects, nil
}

// FetchSubject loads one subject.
func (c *Client) FetchSubject(ctx context.Context, id string) (models.Subject, error) {
	var subject models.Subject
	if err := c.do(ctx, OpFetchOne, http.MethodGet, subjectPath(id), nil, &subject); err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

// RecordVisitRemote stores now as the subject's last verified date and
// returns the subject the service persisted.
func (c *Client) RecordVisitRemote(ctx context.Context, id, now string) (models.Subject, error) {
	body := models.VisitRequest{LastVerifiedDate: now}
	var subject models.Subject
	if err := c.do(ctx, OpRecordVisit, http.MethodPatch, subjectPath(id), body, &subject); err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

// ImportSubjects upserts subjects and returns what the service stored.
func (c *Client) ImportSubjects(ctx context.Context, subjects []models.Subject) ([]models.Subject, error) {
	var stored []models.Subject
	if err := c.do(ctx, OpImport, http.MethodPost, subjectsPath, subjects, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}

func subjectPath(id string) string {
	return subjectsPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &models.TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return &models.TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func responseError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	te := &models.TransportError{Op: op, StatusCode: resp.StatusCode}

	var payload models.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && (payload.Code != "" || payload.Message != "") {
		te.Code = payload.Code
		te.Err = errors.New(payload.Message)
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		te.Err = errors.New(text)
	} else {
		te.Err = errors.New(http.StatusText(resp.StatusCode))
	}

	if resp.StatusCode == http.StatusNotFound {
		te.Err = fmt.Errorf("%w: %v", models.ErrNotFound, te.Err)
	}
	return te
}
