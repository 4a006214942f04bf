// Package client talks to a running frame over its web api.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aouyang1/einkframe/api/models"
	"github.com/aouyang1/einkframe/slideshow"
)

type FrameClient struct {
	baseURL string
	client  *http.Client
}

func NewFrameClient(baseURL string) *FrameClient {
	return &FrameClient{
		baseURL: baseURL,
		// renders on an e-ink panel can take tens of seconds
		client: &http.Client{Timeout: 3 * time.Minute},
	}
}

// StatusError is a non-2xx answer from the frame.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

func (fc *FrameClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fc.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := fc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (fc *FrameClient) photo(ctx context.Context, path string) (slideshow.PhotoRef, error) {
	var resp models.PhotoResponse
	if err := fc.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return slideshow.PhotoRef{}, err
	}
	return resp.Photo, nil
}

func (fc *FrameClient) Next(ctx context.Context) (slideshow.PhotoRef, error) {
	return fc.photo(ctx, "/next")
}

func (fc *FrameClient) Previous(ctx context.Context) (slideshow.PhotoRef, error) {
	return fc.photo(ctx, "/prev")
}

// Show displays the photo with the given id.
func (fc *FrameClient) Show(ctx context.Context, id string) (slideshow.PhotoRef, error) {
	return fc.photo(ctx, fmt.Sprintf("/photos/%s/show", url.PathEscape(id)))
}

// Start starts the slideshow; a zero interval keeps the stored one.
func (fc *FrameClient) Start(ctx context.Context, minutes int) (*models.StatusResponse, error) {
	var req models.StartRequest
	if minutes != 0 {
		req.IntervalMinutes = &minutes
	}

	var resp models.StatusResponse
	if err := fc.do(ctx, http.MethodPost, "/slideshow/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (fc *FrameClient) Stop(ctx context.Context) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := fc.do(ctx, http.MethodPost, "/slideshow/stop", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (fc *FrameClient) Status(ctx context.Context) (*models.StatusResponse, error) {
	var resp models.StatusResponse
	if err := fc.do(ctx, http.MethodGet, "/api/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPhotos returns the cached photos in display order.
func (fc *FrameClient) ListPhotos(ctx context.Context) ([]slideshow.PhotoRef, error) {
	var resp models.PhotoListResponse
	if err := fc.do(ctx, http.MethodGet, "/photos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Photos, nil
}

func (fc *FrameClient) ShowInfo(ctx context.Context) error {
	return fc.do(ctx, http.MethodPost, "/info", nil, nil)
}

func (fc *FrameClient) Sync(ctx context.Context) (*models.SyncResponse, error) {
	var resp models.SyncResponse
	if err := fc.do(ctx, http.MethodPost, "/sync", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
