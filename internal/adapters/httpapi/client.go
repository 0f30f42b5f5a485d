package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/urlfeatures"
	"go.uber.org/zap"
)

const (
	emailPath = "/predict/email"
	urlPath   = "/predict/url"

	// PayloadURL sends {"url": ...} to the URL endpoint
	PayloadURL = "url"
	// PayloadFeatures sends the extracted numeric URL features instead
	PayloadFeatures = "features"

	defaultMaxResponseBytes = 1 << 20
)

// ErrUnexpectedStatus is returned for any non-2xx response
var ErrUnexpectedStatus = errors.New("unexpected status from prediction API")

// Client is an implementation of the Classifier interface for the remote
// prediction API
type Client struct {
	httpClient       *http.Client
	baseURL          string
	urlPayload       string
	maxResponseBytes int64
	logger           *zap.Logger
}

type emailEnvelope struct {
	EmailText string `json:"email_text"`
}

type urlEnvelope struct {
	URL string `json:"url"`
}

// NewClient creates a new prediction API client
func NewClient(
	baseURL string,
	timeout time.Duration,
	urlPayload string,
	maxResponseBytes int64,
	logger *zap.Logger,
) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("prediction API base URL is required")
	}
	switch urlPayload {
	case "":
		urlPayload = PayloadURL
	case PayloadURL, PayloadFeatures:
	default:
		return nil, fmt.Errorf("unsupported url payload mode: %s", urlPayload)
	}
	if maxResponseBytes <= 0 {
		maxResponseBytes = defaultMaxResponseBytes
	}

	return &Client{
		httpClient:       &http.Client{Timeout: timeout},
		baseURL:          strings.TrimRight(baseURL, "/"),
		urlPayload:       urlPayload,
		maxResponseBytes: maxResponseBytes,
		logger:           logger,
	}, nil
}

// Name identifies the classifier
func (c *Client) Name() string {
	return "http"
}

// Classify posts the request envelope to the endpoint for its kind
func (c *Client) Classify(ctx context.Context, req core.AnalysisRequest) (*core.ClassifierResponse, error) {
	path, body, err := c.envelope(req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call prediction API: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read prediction API response: %w", err)
	}

	c.logger.Debug("Prediction API responded",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(data)),
		zap.Duration("duration", time.Since(startTime)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := apiErrorMessage(data); msg != "" {
			return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if int64(len(data)) > c.maxResponseBytes {
		return nil, fmt.Errorf("prediction API response exceeds %d bytes", c.maxResponseBytes)
	}

	var out core.ClassifierResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode prediction API response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prediction API response: %w", err)
	}

	return &out, nil
}

func (c *Client) envelope(req core.AnalysisRequest) (string, any, error) {
	switch req.Kind {
	case core.KindEmail:
		return emailPath, emailEnvelope{EmailText: req.Payload}, nil
	case core.KindURL:
		if c.urlPayload == PayloadFeatures {
			return urlPath, urlfeatures.Extract(strings.TrimSpace(req.Payload)), nil
		}
		return urlPath, urlEnvelope{URL: req.Payload}, nil
	default:
		return "", nil, fmt.Errorf("unsupported analysis kind: %s", req.Kind)
	}
}

// apiErrorMessage pulls the "error" field the prediction API uses for failures
func apiErrorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Error
}
