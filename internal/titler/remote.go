package titler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRemoteTimeout bounds a /generate_title call.
const DefaultRemoteTimeout = 5 * time.Second

// Remote calls a title service exposing POST /generate_title.
type Remote struct {
	BaseURL    string
	HTTPClient *http.Client
	// Timeout defaults to DefaultRemoteTimeout.
	Timeout time.Duration
}

type remoteRequest struct {
	Summary string `json:"summary"`
}

type remoteResponse struct {
	Title string `json:"title"`
}

// Generate implements Generator.
func (r *Remote) Generate(ctx context.Context, summary string) (string, error) {
	if strings.TrimSpace(summary) == "" {
		return "", ErrNoTitle
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(remoteRequest{Summary: summary})
	if err != nil {
		return "", err
	}
	endpoint := strings.TrimRight(r.BaseURL, "/") + "/generate_title"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate_title: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generate_title: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generate_title: %w", err)
	}
	title := CleanTitle(out.Title)
	if title == "" {
		return "", ErrNoTitle
	}
	return title, nil
}
