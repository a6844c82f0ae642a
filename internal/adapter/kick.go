package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"streamwatch/internal/domain"
)

const kickAPIURL = "https://kick.com/api/v2"

// KickProbe implements domain.PlatformProbe for Kick via its public
// channels endpoint. No authentication is required; a 404 means the
// channel does not exist.
type KickProbe struct {
	apiBaseURL string
	httpClient *http.Client
}

// NewKickProbe creates a new Kick probe
func NewKickProbe(timeout time.Duration) *KickProbe {
	return &KickProbe{
		apiBaseURL: kickAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CheckLive reports whether the Kick channel is currently streaming
func (p *KickProbe) CheckLive(ctx context.Context, identity string) (*domain.LiveCheckResult, error) {
	endpoint := fmt.Sprintf("%s/channels/%s", p.apiBaseURL, url.PathEscape(identity))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("kick channel %q: %w", identity, domain.ErrIdentityNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("kick api returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Slug       string `json:"slug"`
		Livestream *struct {
			SessionTitle string `json:"session_title"`
			ViewerCount  int    `json:"viewer_count"`
		} `json:"livestream"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	observed := time.Now()

	// A null livestream means the channel exists but is offline
	if result.Livestream == nil {
		return &domain.LiveCheckResult{IsLive: false, ObservedAt: observed}, nil
	}

	return &domain.LiveCheckResult{
		IsLive:      true,
		ObservedAt:  observed,
		Title:       result.Livestream.SessionTitle,
		StreamURL:   fmt.Sprintf("https://kick.com/%s", result.Slug),
		ViewerCount: result.Livestream.ViewerCount,
	}, nil
}
