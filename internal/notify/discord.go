package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"streamwatch/internal/domain"
)

const discordAPIURL = "https://discord.com/api/v10"

// DiscordNotifier delivers messages to Discord channels through the
// REST API. It implements domain.Notifier.
type DiscordNotifier struct {
	botToken   string
	apiBaseURL string
	httpClient *http.Client
}

// NewDiscordNotifier creates a notifier authenticated with the given bot token
func NewDiscordNotifier(botToken string) *DiscordNotifier {
	return &DiscordNotifier{
		botToken:   botToken,
		apiBaseURL: discordAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts a message to the destination channel. A missing or
// inaccessible channel is reported as domain.ErrChannelGone.
func (n *DiscordNotifier) Send(ctx context.Context, dest domain.Destination, message string) error {
	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/channels/%s/messages", n.apiBaseURL, dest.ChannelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+n.botToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("discord channel %s: %w", dest.ChannelID, domain.ErrChannelGone)
	default:
		return fmt.Errorf("discord api returned status %d", resp.StatusCode)
	}
}
