// Package telegram delivers scan digests via the Telegram Bot API and
// serves the interactive /scan command.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mtanaka-dev/tsescan/internal/logger"
)

// ScanHandler produces the reply text for an on-demand scan request.
type ScanHandler func(ctx context.Context) (string, error)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Notify sends one plain-text payload to the configured chat with
// linear-backoff retry. A failed API response is logged with its cause
// before the error is surfaced; the caller owns any further retry policy.
func (c *Client) Notify(text string) error {
	return c.sendTo(c.chatID, text)
}

func (c *Client) sendTo(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			logger.Error("Telegram send failed (attempt %d/%d): %v", i+1, c.maxRetries, err)
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// ListenForCommands starts a goroutine polling for bot commands. /scan runs
// the handler and replies with its text; /start replies with a greeting.
// Returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context, onScan ScanHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(ctx, update.Message, onScan)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(ctx context.Context, msg *tgbotapi.Message, onScan ScanHandler) {
	switch msg.Command() {
	case "start":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "👋 Hi! Send /scan whenever you want today's Tokyo scan.")
		c.bot.Send(reply) //nolint:errcheck

	case "scan":
		if onScan == nil {
			return
		}
		typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
		c.bot.Send(typing) //nolint:errcheck

		text, err := onScan(ctx)
		if err != nil {
			logger.Error("On-demand scan failed: %v", err)
			text = fmt.Sprintf("⚠️ Scan failed: %v", err)
		}
		if err := c.sendTo(msg.Chat.ID, text); err != nil {
			logger.Error("Failed to reply to /scan: %v", err)
		}
	}
}

// SendError sends a scan-failure notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(cycleErr error) error {
	return c.Notify(fmt.Sprintf("⚠️ Scan error: %s", cycleErr.Error()))
}
