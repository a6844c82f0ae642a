package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"streamwatch/internal/cache"
	"streamwatch/internal/domain"
)

const (
	tiktokLiveURL    = "https://www.tiktok.com"
	tiktokWebcastURL = "https://webcast.tiktok.com"

	// Room IDs can change between streams, so cache them briefly
	tiktokRoomIDTTL = time.Hour

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36"
)

// roomIDPatterns match the room ID embedded in a channel's live page.
// TikTok has shipped several spellings over time.
var roomIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"roomId":"(\d+)"`),
	regexp.MustCompile(`"room_id":"(\d+)"`),
	regexp.MustCompile(`room_id=(\d+)`),
	regexp.MustCompile(`roomId=(\d+)`),
}

// TikTokProbe implements domain.PlatformProbe for TikTok. TikTok has no
// public liveness API, so the probe scrapes the channel's live page for
// its webcast room ID and then asks the webcast check_alive endpoint.
type TikTokProbe struct {
	liveBaseURL    string
	webcastBaseURL string
	httpClient     *http.Client
	roomIDs        *cache.Cache
}

// NewTikTokProbe creates a new TikTok probe
func NewTikTokProbe(timeout time.Duration) *TikTokProbe {
	return &TikTokProbe{
		liveBaseURL:    tiktokLiveURL,
		webcastBaseURL: tiktokWebcastURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		roomIDs: cache.New(tiktokRoomIDTTL),
	}
}

// CheckLive reports whether the TikTok channel is currently streaming
func (p *TikTokProbe) CheckLive(ctx context.Context, identity string) (*domain.LiveCheckResult, error) {
	roomID, err := p.resolveRoomID(ctx, identity)
	if err != nil {
		return nil, err
	}

	alive, err := p.checkAlive(ctx, roomID)
	if err != nil {
		return nil, err
	}

	return &domain.LiveCheckResult{
		IsLive:     alive,
		ObservedAt: time.Now(),
		StreamURL:  fmt.Sprintf("https://www.tiktok.com/@%s/live", identity),
	}, nil
}

// resolveRoomID scrapes the channel's live page for its webcast room ID
func (p *TikTokProbe) resolveRoomID(ctx context.Context, identity string) (string, error) {
	if id, ok := p.roomIDs.Get(identity); ok {
		return id, nil
	}

	endpoint := fmt.Sprintf("%s/@%s/live", p.liveBaseURL, url.PathEscape(identity))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("tiktok user %q: %w", identity, domain.ErrIdentityNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tiktok live page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read live page: %w", err)
	}

	for _, pattern := range roomIDPatterns {
		if m := pattern.FindSubmatch(body); m != nil {
			roomID := string(m[1])
			p.roomIDs.Set(identity, roomID)
			return roomID, nil
		}
	}

	// The page loaded but carried no room ID; treat as transient since
	// TikTok serves stripped pages under load shedding
	return "", fmt.Errorf("could not resolve room id for tiktok user %q", identity)
}

// checkAlive asks the webcast API whether the room is currently live
func (p *TikTokProbe) checkAlive(ctx context.Context, roomID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/webcast/room/check_alive/?aid=1988&region=US&room_ids=%s&user_is_login=false",
		p.webcastBaseURL, url.QueryEscape(roomID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("tiktok webcast api returned status %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			Alive  bool  `json:"alive"`
			RoomID int64 `json:"room_id"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return false, fmt.Errorf("tiktok webcast api returned no data for room %s", roomID)
	}

	return result.Data[0].Alive, nil
}
