package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPRemote talks to a sync endpoint serving GET/PUT /v1/state/{token}.
// A 404 on fetch means no state is stored for the token.
type HTTPRemote struct {
	baseURL string
	client  *http.Client
}

func NewHTTPRemote(baseURL string) *HTTPRemote {
	return &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRemote) stateURL(token string) string {
	return r.baseURL + "/v1/state/" + url.PathEscape(token)
}

func (r *HTTPRemote) Fetch(ctx context.Context, token string) (*State, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.stateURL(token), nil)
	if err != nil {
		return nil, fmt.Errorf("building fetch request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote state: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var s State
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return nil, fmt.Errorf("decoding remote state: %w", err)
		}
		return &s, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("remote returned %s", resp.Status)
	}
}

func (r *HTTPRemote) Push(ctx context.Context, token string, s State) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.stateURL(token), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("pushing remote state: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("remote returned %s", resp.Status)
	}
	return nil
}
