package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"notesync/internal/constant"
	"notesync/internal/dto"
	"notesync/internal/pkg/logger"
	"notesync/internal/syncerr"
)

// Client performs one request/response exchange with the sync server.
// It classifies failures into the syncerr taxonomy and never retries;
// retry policy belongs to the sync manager.
type Client interface {
	Exchange(ctx context.Context, token string, req *dto.SyncRequest) (*dto.SyncResponse, error)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logger.ILogger
}

func NewHTTPClient(baseURL string, httpClient *http.Client, log logger.ILogger) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    httpClient,
		logger:  log,
	}
}

func (c *HTTPClient) Exchange(ctx context.Context, token string, req *dto.SyncRequest) (*dto.SyncResponse, error) {
	endpoint, err := url.JoinPath(c.baseURL, constant.SyncEndpointPath)
	if err != nil {
		return nil, fmt.Errorf("%w: bad server URL %q", syncerr.ErrInvalidConfiguration, c.baseURL)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding sync request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncerr.ErrInvalidConfiguration, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", syncerr.ErrCancelled, err)
		}
		return nil, fmt.Errorf("%w: %v", syncerr.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", syncerr.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("transport", "sync server returned an error status", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(snippet),
		})
		return nil, fmt.Errorf("%w: status %d", syncerr.ErrServerError, resp.StatusCode)
	}

	var decoded dto.SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding sync response: %w", err)
	}
	return &decoded, nil
}
