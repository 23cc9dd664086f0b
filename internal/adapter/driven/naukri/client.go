// Package naukri implements the JobPortal port against the Naukri web APIs.
package naukri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericfisherdev/profilekeeper/internal/domain/model"
	"github.com/ericfisherdev/profilekeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.JobPortal = (*Client)(nil)

const (
	defaultBaseURL   = "https://www.naukri.com"
	defaultUploadURL = "https://filevalidation.naukri.com/file"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36"

	// Upload form identifiers issued by the portal's resume widget.
	DefaultFormKey = "F51f8e7e54e205"
	DefaultFileKey = "UxP6t4tlxcw19o"

	// maxBodyBytes caps how much of a response is read into memory.
	maxBodyBytes = 1 << 20
	// maxErrorBody caps the upstream body carried on an APIError.
	maxErrorBody = 512
)

// Options configures a Client. Zero values fall back to production defaults.
type Options struct {
	BaseURL   string
	UploadURL string
	FormKey   string
	FileKey   string
	UserAgent string
	// MinInterval spaces outbound requests. Zero disables pacing.
	MinInterval time.Duration
}

// DefaultOptions returns the production endpoints and upload keys.
func DefaultOptions() Options {
	return Options{
		BaseURL:     defaultBaseURL,
		UploadURL:   defaultUploadURL,
		FormKey:     DefaultFormKey,
		FileKey:     DefaultFileKey,
		UserAgent:   defaultUserAgent,
		MinInterval: 500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BaseURL == "" {
		o.BaseURL = d.BaseURL
	}
	if o.UploadURL == "" {
		o.UploadURL = d.UploadURL
	}
	if o.FormKey == "" {
		o.FormKey = d.FormKey
	}
	if o.FileKey == "" {
		o.FileKey = d.FileKey
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	return o
}

// Client implements the driven.JobPortal port over plain HTTPS+JSON.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
	logger  *slog.Logger
}

// NewClient creates a portal client with a 60-second request timeout.
func NewClient(opts Options, logger *slog.Logger) *Client {
	return NewClientWithHTTPClient(&http.Client{Timeout: 60 * time.Second}, opts, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, opts Options, logger *slog.Logger) *Client {
	opts = opts.withDefaults()

	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		logger:  logger,
	}
}

// headerSet is the Appid/Systemid pair each portal surface expects.
type headerSet struct {
	appID    string
	systemID string
}

var (
	loginHeaders   = headerSet{appID: "103", systemID: "jobseeker"}
	profileHeaders = headerSet{appID: "105", systemID: "Naukri"}
	resumeHeaders  = headerSet{appID: "105", systemID: "105"}
)

// request describes one portal call.
type request struct {
	op       string
	method   string
	url      string
	headers  headerSet
	token    string
	override string // x-http-method-override
	body     io.Reader
	ctype    string
}

// response is a completed portal call with its body read.
type response struct {
	status  int
	header  http.Header
	cookies []*http.Cookie
	body    []byte
}

func (c *Client) jsonRequest(op, method, path string, headers headerSet, token string, payload any) (request, error) {
	req := request{op: op, method: method, url: c.opts.BaseURL + path, headers: headers, token: token}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return request{}, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		req.body = bytes.NewReader(b)
		req.ctype = "application/json"
	}
	return req, nil
}

// send performs r and returns the raw response without judging its status.
func (c *Client) send(ctx context.Context, r request) (response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return response{}, fmt.Errorf("%s: %w", r.op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return response{}, fmt.Errorf("%s: create request: %w", r.op, err)
	}
	httpReq.Header.Set("Appid", r.headers.appID)
	httpReq.Header.Set("Systemid", r.headers.systemID)
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if r.ctype != "" {
		httpReq.Header.Set("Content-Type", r.ctype)
	}
	if r.token != "" {
		httpReq.Header.Set("Authorization", "bearer "+r.token)
	}
	if r.override != "" {
		httpReq.Header.Set("x-http-method-override", r.override)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return response{}, fmt.Errorf("%s: read response: %w", r.op, err)
	}

	c.logger.Debug("portal call",
		"op", r.op,
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return response{
		status:  resp.StatusCode,
		header:  resp.Header,
		cookies: resp.Cookies(),
		body:    body,
	}, nil
}

// do performs r and maps any non-2xx status to *model.APIError.
func (c *Client) do(ctx context.Context, r request) (response, error) {
	resp, err := c.send(ctx, r)
	if err != nil {
		return response{}, err
	}
	if resp.status < 200 || resp.status > 299 {
		return response{}, apiError(r.op, resp)
	}
	return resp, nil
}

func apiError(op string, resp response) *model.APIError {
	body := strings.TrimSpace(string(resp.body))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return &model.APIError{Op: op, StatusCode: resp.status, Body: body}
}

func decode(op string, resp response, v any) error {
	if len(bytes.TrimSpace(resp.body)) == 0 {
		return fmt.Errorf("%s: empty response body", op)
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
