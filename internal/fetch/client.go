// Package fetch is the shared transport client for portal pages and
// attachment downloads. One pooled client is shared by all crawl jobs;
// per-request state never leaks between calls.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hyunsoo/bizharvest/internal/logger"
)

// Kind selects the request profile: listing/detail pages or file downloads.
type Kind string

const (
	KindPage Kind = "page"
	KindFile Kind = "file"
)

var (
	// ErrTooLarge is returned when a file download exceeds the byte ceiling.
	ErrTooLarge = errors.New("fetch: response exceeds size limit")
	// ErrHTMLResponse is returned when a file download came back as an HTML
	// page, which government servers use as an in-band error signal.
	ErrHTMLResponse = errors.New("fetch: server returned html instead of file")
)

// RequestContext carries optional per-request headers for authenticated
// file downloads.
type RequestContext struct {
	Referer string
	Cookie  string
}

// Config controls the transport client.
type Config struct {
	RequestTimeout  time.Duration // page requests
	FileTimeout     time.Duration // file downloads
	MaxFileSize     int64         // byte ceiling for file downloads
	UserAgent       string
	MaxAttempts     int           // total attempts including the first
	BaseDelay       time.Duration // first backoff delay
	MaxDelay        time.Duration // backoff cap
	MaxConnsPerHost int
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.FileTimeout <= 0 {
		c.FileTimeout = 60 * time.Second
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 10 * 1024 * 1024
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 8 * time.Second
	}
	if c.MaxConnsPerHost <= 0 {
		c.MaxConnsPerHost = 4
	}
}

// Client is the pooled, retrying HTTP client.
type Client struct {
	page   *resty.Client
	file   *resty.Client
	cfg    Config
	logger *logger.Logger
}

// New creates a transport client with a shared keep-alive connection pool
// and a bounded per-host socket count.
// Parameters:
//   - cfg: transport configuration; zero fields take defaults.
//   - log: logger; nil uses the default logger.
// Returns:
//   - *Client: initialized client.
func New(cfg Config, log *logger.Logger) *Client {
	cfg.applyDefaults()
	if log == nil {
		log = logger.GetDefault()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: cfg.MaxConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	newClient := func(timeout time.Duration) *resty.Client {
		c := resty.NewWithClient(&http.Client{Transport: transport})
		c.SetTimeout(timeout)
		c.SetRetryCount(0) // retries are handled by Fetch, with fixed backoff
		if cfg.UserAgent != "" {
			c.SetHeader("User-Agent", cfg.UserAgent)
		}
		return c
	}

	// File responses are streamed, not buffered by resty, so the size
	// ceiling can cut the read short.
	file := newClient(cfg.FileTimeout)
	file.SetDoNotParseResponse(true)

	return &Client{
		page:   newClient(cfg.RequestTimeout),
		file:   file,
		cfg:    cfg,
		logger: log,
	}
}

// Fetch retrieves url and returns the response body. Transient failures are
// retried with exponential backoff; client errors other than 429 fail fast.
// File downloads additionally enforce the size ceiling and reject HTML
// bodies masquerading as binaries.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - url: absolute URL to fetch.
//   - kind: KindPage or KindFile.
//   - rc: optional referer/cookie context, used by file downloads.
// Returns:
//   - []byte: response body.
//   - error: non-nil after retries are exhausted or on a fatal failure.
func (c *Client) Fetch(ctx context.Context, url string, kind Kind, rc *RequestContext) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.backoff(attempt)
			c.logger.WithFields(logger.Fields{
				"url":     url,
				"attempt": attempt,
				"delay":   delay.String(),
			}).Warn("Retrying fetch")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch cancelled during backoff: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		body, retryable, err := c.doFetch(ctx, url, kind, rc)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

// backoff returns the delay before the given attempt (attempt >= 2):
// base, base*2, base*4, ... capped at MaxDelay.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.cfg.BaseDelay << (attempt - 2)
	if delay <= 0 || delay > c.cfg.MaxDelay {
		delay = c.cfg.MaxDelay
	}
	return delay
}

func (c *Client) doFetch(ctx context.Context, url string, kind Kind, rc *RequestContext) (body []byte, retryable bool, err error) {
	client := c.page
	if kind == KindFile {
		client = c.file
	}

	req := client.R().SetContext(ctx)
	if rc != nil {
		if rc.Referer != "" {
			req.SetHeader("Referer", rc.Referer)
		}
		if rc.Cookie != "" {
			req.SetHeader("Cookie", rc.Cookie)
		}
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, isRetryableNetErr(ctx, err), fmt.Errorf("request failed: %w", err)
	}
	if kind == KindFile {
		defer resp.RawBody().Close()
	}

	status := resp.StatusCode()
	switch {
	case status >= 200 && status < 300:
		// fall through to body checks
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, true, fmt.Errorf("server error: status %d", status)
	default:
		return nil, false, fmt.Errorf("client error: status %d", status)
	}

	if kind == KindFile {
		return c.readFileBody(ctx, resp)
	}
	return resp.Body(), false, nil
}

// readFileBody drains a streamed file response with the size ceiling
// enforced before and during the read, so an oversized body is never
// buffered whole.
func (c *Client) readFileBody(ctx context.Context, resp *resty.Response) ([]byte, bool, error) {
	if cl := resp.RawResponse.ContentLength; cl > c.cfg.MaxFileSize {
		return nil, false, fmt.Errorf("%w: content length %d bytes", ErrTooLarge, cl)
	}

	body, err := io.ReadAll(io.LimitReader(resp.RawBody(), c.cfg.MaxFileSize+1))
	if err != nil {
		return nil, isRetryableNetErr(ctx, err), fmt.Errorf("failed to read file body: %w", err)
	}
	if int64(len(body)) > c.cfg.MaxFileSize {
		return nil, false, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, c.cfg.MaxFileSize)
	}
	if looksLikeHTML(body) {
		return nil, false, ErrHTMLResponse
	}
	return body, false, nil
}

// isRetryableNetErr classifies transport-level failures: timeouts, resets,
// and truncated responses are worth retrying. Only the caller's own
// cancellation is terminal; a per-request timeout surfaces as a net.Error
// and stays retryable.
func isRetryableNetErr(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	return false
}

// looksLikeHTML sniffs the first bytes for an HTML document prefix. Some
// portals answer file downloads with a 200 HTML error page.
func looksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 256 {
		head = head[:256]
	}
	s := strings.TrimLeft(string(head), " \t\r\n\uFEFF")
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}
