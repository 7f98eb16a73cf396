package alert

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/your-org/spread-alert-bot/internal/config"
)

// discordSession abstracts the discordgo session for testability.
type discordSession interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// DiscordNotifier sends alert messages to a fixed Discord channel.
type DiscordNotifier struct {
	session   discordSession
	channelID string
	logger    *zap.Logger
}

// NewDiscordNotifier creates a notifier from the given config. The session
// is stateless (plain REST calls), so no gateway connection is opened.
func NewDiscordNotifier(cfg config.DiscordConfig, logger *zap.Logger) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return &DiscordNotifier{
		session:   session,
		channelID: cfg.ChannelID,
		logger:    logger,
	}, nil
}

// Send posts the message to the configured channel.
func (n *DiscordNotifier) Send(message string) error {
	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		n.logger.Error("Failed to send Discord message",
			zap.String("channel_id", n.channelID), zap.Error(err))
		return fmt.Errorf("failed to send discord message: %w", err)
	}
	return nil
}

// Close releases the underlying session.
func (n *DiscordNotifier) Close() error {
	return n.session.Close()
}
