package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"apex-hub/config"
	"apex-hub/pkg/logger"
	"apex-hub/pkg/utils"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// MaxMessageLength is Telegram's limit for a text message, in runes.
const MaxMessageLength = 4096

var ErrNotConfigured = errors.New("telegram relay is not configured")

// chatRecipient accepts numeric chat ids as well as "@channel" usernames.
type chatRecipient string

func (c chatRecipient) Recipient() string {
	return string(c)
}

// ChannelRelay posts messages to the configured channel and operator alerts
// to the alert chat, sharing one global rate limiter.
type ChannelRelay struct {
	cfg           *config.TelegramConfig
	log           *logger.Logger
	bot           *telebot.Bot
	globalLimiter *rate.Limiter
}

// NewChannelRelay builds a relay. Without a bot token it returns a relay whose
// sends fail with ErrNotConfigured, so callers can treat delivery as optional.
func NewChannelRelay(cfg *config.TelegramConfig, log *logger.Logger) (*ChannelRelay, error) {
	relay := &ChannelRelay{
		cfg:           cfg,
		log:           log,
		globalLimiter: rate.NewLimiter(rate.Limit(cfg.MaxGlobalRequestPerSecond), cfg.MaxGlobalRequestPerSecond),
	}
	if cfg.BotToken == "" {
		return relay, nil
	}

	bot, err := telebot.NewBot(telebot.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.BotToken,
		Offline: true,
		Client:  &http.Client{Timeout: cfg.TimeoutDuration},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	relay.bot = bot
	return relay, nil
}

// Configured reports whether channel messages can be delivered.
func (t *ChannelRelay) Configured() bool {
	return t.bot != nil && t.cfg.ChatID != ""
}

func (t *ChannelRelay) AlertsConfigured() bool {
	return t.bot != nil && t.cfg.AlertChatID != ""
}

// SendChannelMessage posts an HTML message to the signal channel.
func (t *ChannelRelay) SendChannelMessage(ctx context.Context, text string) error {
	if !t.Configured() {
		return ErrNotConfigured
	}
	return t.send(ctx, t.cfg.ChatID, text)
}

// SendAlert implements logger.AlertSender.
func (t *ChannelRelay) SendAlert(level, message string, fields map[string]interface{}) {
	if !t.AlertsConfigured() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.TimeoutDuration)
	defer cancel()

	text := FormatErrorAlertMessage(utils.TimeNowUTC(), level, message, logger.FormatFields(fields))
	if err := t.send(ctx, t.cfg.AlertChatID, text); err != nil {
		// Plain logger call: routing this through the alert core would loop.
		t.log.Warn("Failed to send operator alert", logger.ErrorField(err))
	}
}

func (t *ChannelRelay) send(ctx context.Context, chatID, text string) error {
	if err := t.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for telegram rate limit: %w", err)
	}
	if _, err := t.bot.Send(chatRecipient(chatID), truncate(text, MaxMessageLength), telebot.ModeHTML, telebot.NoPreview); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
