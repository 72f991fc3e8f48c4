// Package discord implements the Notifier port on a Discord channel.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Notifier = (*Notifier)(nil)

// messageSender is the slice of *discordgo.Session the notifier needs.
// Narrowed for testability.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers messages to a single configured Discord channel.
type Notifier struct {
	session   messageSender
	channelID string
}

// NewNotifier creates a Notifier that posts to channelID through the
// given session.
func NewNotifier(session messageSender, channelID string) *Notifier {
	return &Notifier{session: session, channelID: channelID}
}

// Notify sends message to the configured channel.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending to channel %s: %w", n.channelID, err)
	}
	return nil
}
