package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"streamwatch/internal/cache"
	"streamwatch/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	twitchTokenURL = "https://id.twitch.tv/oauth2/token"
	twitchAPIURL   = "https://api.twitch.tv/helix"

	// Twitch user IDs are stable; cache them for a day to skip the
	// username lookup on most ticks
	twitchUserIDTTL = 24 * time.Hour
)

// TwitchProbe implements domain.PlatformProbe for Twitch using the Helix
// API with an app access token (OAuth 2.0 client credentials flow). The
// token source caches and refreshes the token transparently.
type TwitchProbe struct {
	clientID     string
	clientSecret string
	tokenURL     string
	apiBaseURL   string
	httpClient   *http.Client

	mu          sync.Mutex
	tokenSource oauth2.TokenSource

	userIDs *cache.Cache
}

// NewTwitchProbe creates a new Twitch probe
func NewTwitchProbe(clientID, clientSecret string, timeout time.Duration) *TwitchProbe {
	return &TwitchProbe{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     twitchTokenURL,
		apiBaseURL:   twitchAPIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userIDs: cache.New(twitchUserIDTTL),
	}
}

// token returns a valid app access token, fetching or refreshing as needed
func (p *TwitchProbe) token() (*oauth2.Token, error) {
	p.mu.Lock()
	if p.tokenSource == nil {
		cfg := &clientcredentials.Config{
			ClientID:     p.clientID,
			ClientSecret: p.clientSecret,
			TokenURL:     p.tokenURL,
		}
		// Token fetches go through our timeout-bearing client
		tctx := context.WithValue(context.Background(), oauth2.HTTPClient, p.httpClient)
		p.tokenSource = oauth2.ReuseTokenSource(nil, cfg.TokenSource(tctx))
	}
	ts := p.tokenSource
	p.mu.Unlock()

	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain twitch token: %w", err)
	}
	return tok, nil
}

// CheckLive reports whether the Twitch channel is currently streaming.
// Helix requires numeric user IDs, so the identity is resolved first; an
// unknown login is reported as ErrIdentityNotFound.
func (p *TwitchProbe) CheckLive(ctx context.Context, identity string) (*domain.LiveCheckResult, error) {
	userID, err := p.resolveUserID(ctx, identity)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []struct {
			UserLogin    string `json:"user_login"`
			Title        string `json:"title"`
			ThumbnailURL string `json:"thumbnail_url"`
			ViewerCount  int    `json:"viewer_count"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/streams?user_id=%s", p.apiBaseURL, url.QueryEscape(userID))
	if err := p.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	observed := time.Now()

	// Empty data array means the channel is not currently streaming
	if len(result.Data) == 0 {
		return &domain.LiveCheckResult{IsLive: false, ObservedAt: observed}, nil
	}

	stream := result.Data[0]
	return &domain.LiveCheckResult{
		IsLive:      true,
		ObservedAt:  observed,
		Title:       stream.Title,
		StreamURL:   fmt.Sprintf("https://www.twitch.tv/%s", stream.UserLogin),
		ViewerCount: stream.ViewerCount,
	}, nil
}

// resolveUserID maps a login name to the numeric user ID Helix expects
func (p *TwitchProbe) resolveUserID(ctx context.Context, identity string) (string, error) {
	if id, ok := p.userIDs.Get(identity); ok {
		return id, nil
	}

	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/users?login=%s", p.apiBaseURL, url.QueryEscape(identity))
	if err := p.getJSON(ctx, endpoint, &result); err != nil {
		return "", err
	}

	if len(result.Data) == 0 {
		return "", fmt.Errorf("twitch user %q: %w", identity, domain.ErrIdentityNotFound)
	}

	id := result.Data[0].ID
	p.userIDs.Set(identity, id)
	return id, nil
}

// getJSON performs an authenticated Helix GET and decodes the response
func (p *TwitchProbe) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	tok, err := p.token()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Client-ID", p.clientID)
	tok.SetAuthHeader(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twitch api returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
