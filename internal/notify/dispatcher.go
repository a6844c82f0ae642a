package notify

import (
	"context"
	"fmt"
	"strings"

	"streamwatch/internal/domain"
	"streamwatch/internal/logger"
)

// Dispatcher renders and delivers live announcements. Delivery is
// best effort: a failed send is logged and the check loop moves on.
type Dispatcher struct {
	notifier domain.Notifier
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher backed by the given notifier
func NewDispatcher(notifier domain.Notifier, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		log:      log,
	}
}

// Dispatch announces that the watched stream went live
func (d *Dispatcher) Dispatch(ctx context.Context, entry *domain.WatchEntry, result *domain.LiveCheckResult) {
	message := renderMessage(entry, result)

	if err := d.notifier.Send(ctx, entry.Destination, message); err != nil {
		d.log.Error("Failed to deliver live notification", logger.Fields{
			"guild_id":   entry.GuildID,
			"platform":   entry.Platform,
			"identity":   entry.Identity,
			"channel_id": entry.ChannelID,
			"error":      err.Error(),
		})
		return
	}

	d.log.Info("Delivered live notification", logger.Fields{
		"guild_id": entry.GuildID,
		"platform": entry.Platform,
		"identity": entry.Identity,
	})
}

// renderMessage builds the announcement text: role mention, the
// entry's template, then the stream link and whatever metadata the
// probe observed. Missing metadata never blocks the announcement.
func renderMessage(entry *domain.WatchEntry, result *domain.LiveCheckResult) string {
	var b strings.Builder

	if entry.RoleID != "" {
		fmt.Fprintf(&b, "<@&%s> ", entry.RoleID)
	}
	b.WriteString(entry.MessageTemplate)

	link := entry.ProfileURL
	if result != nil && result.StreamURL != "" {
		link = result.StreamURL
	}
	if link != "" {
		b.WriteString("\n")
		b.WriteString(link)
	}

	if result != nil && result.Title != "" {
		fmt.Fprintf(&b, "\n%s", result.Title)
		if result.ViewerCount > 0 {
			fmt.Fprintf(&b, " (%d viewers)", result.ViewerCount)
		}
	}

	return b.String()
}
