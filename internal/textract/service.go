// Package textract converts downloaded document buffers into plain text.
// The primary path is an external parsing service; for the ZIP-based
// document formats an in-process fallback keeps extraction working when the
// service is down or unconfigured.
package textract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"github.com/hyunsoo/bizharvest/internal/domain"
	"github.com/hyunsoo/bizharvest/internal/logger"
)

// ErrUnsupportedFormat is returned when neither the remote service nor the
// local fallback can handle the document format.
var ErrUnsupportedFormat = errors.New("textract: unsupported document format")

// Config holds settings for the extraction service.
type Config struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxTextSize int // byte cap for extracted text, rune-safe
}

// Extractor calls the external parse service with a local fallback.
type Extractor struct {
	client      *resty.Client
	baseURL     string
	maxTextSize int
	logger      *logger.Logger
}

// New creates an Extractor.
// Parameters:
//   - cfg: service configuration; empty BaseURL disables the remote path.
//   - log: logger; nil uses the default logger.
// Returns:
//   - *Extractor: initialized extractor.
func New(cfg *Config, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetDefault()
	}
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	maxSize := cfg.MaxTextSize
	if maxSize <= 0 {
		maxSize = 100_000
	}
	return &Extractor{
		client:      client,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		maxTextSize: maxSize,
		logger:      log,
	}
}

type parseResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

// Extract returns the plain text of a document buffer, truncated to the
// configured cap. The remote service is tried first; on any remote failure
// the local fallback handles the ZIP-based formats.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - data: document bytes.
//   - format: detected document format (a hint for the parser).
// Returns:
//   - string: extracted plain text.
//   - error: non-nil when every available path fails.
func (e *Extractor) Extract(ctx context.Context, data []byte, format domain.FileFormat) (string, error) {
	if e.baseURL != "" {
		text, err := e.extractRemote(ctx, data, format)
		if err == nil {
			return e.truncate(text), nil
		}
		e.logger.WithError(err).WithField("format", string(format)).Warn("Remote text extraction failed, trying local fallback")
	}

	text, err := extractLocal(data, format)
	if err != nil {
		return "", err
	}
	return e.truncate(text), nil
}

func (e *Extractor) extractRemote(ctx context.Context, data []byte, format domain.FileFormat) (string, error) {
	var out parseResponse
	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetQueryParam("format", string(format)).
		SetBody(data).
		SetResult(&out).
		Post(e.baseURL + "/v1/parse")
	if err != nil {
		return "", fmt.Errorf("parse request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("parse service returned status %d", resp.StatusCode())
	}
	if !out.Success {
		return "", fmt.Errorf("parse service error: %s", out.Error)
	}
	return out.Text, nil
}

// truncate cuts text to the configured byte cap without splitting a rune.
func (e *Extractor) truncate(text string) string {
	if len(text) <= e.maxTextSize {
		return text
	}
	cut := e.maxTextSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
