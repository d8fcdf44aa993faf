// Package telegram provides a client for sending hedge notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/rewired-gh/matchhedge/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
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

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
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
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendOperation notifies about an executed hedge operation.
func (c *Client) SendOperation(op *models.Operation) error {
	return c.sendMarkdownV2(formatOperation(op))
}

// formatOperation renders an operation as a Telegram MarkdownV2 message.
func formatOperation(op *models.Operation) string {
	var b strings.Builder
	b.WriteString("🛡️ *Hedge executed*\n\n")
	fmt.Fprintf(&b, "🆔 `%s`\n", escapeMarkdownV2(op.ID))
	fmt.Fprintf(&b, "📅 %s\n", escapeMarkdownV2(op.Timestamp.Format("2006-01-02 15:04:05")))
	if op.ScenarioLabel != "" {
		fmt.Fprintf(&b, "🎯 %s\n", escapeMarkdownV2(op.ScenarioLabel))
	}
	fmt.Fprintf(&b, "💼 Exposure: *%s*\n", money(op.TotalExposure))
	if op.RiskProfile != "" {
		fmt.Fprintf(&b, "📊 Profile: *%s*\n", escapeMarkdownV2(string(op.RiskProfile)))
	}

	if len(op.ProfitsBefore) > 0 {
		names := make([]string, 0, len(op.ProfitsBefore))
		for name := range op.ProfitsBefore {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("\n*Reference profits*\n")
		for _, name := range names {
			fmt.Fprintf(&b, "   %s: %s\n", escapeMarkdownV2(name), money(op.ProfitsBefore[name]))
		}
	}

	if len(op.HedgeBets) > 0 {
		b.WriteString("\n*Hedge bets*\n")
		for i, bet := range op.HedgeBets {
			fmt.Fprintf(&b, "%d\\. %s: %s @ %s\n", i+1,
				escapeMarkdownV2(bet.Market), money(bet.Stake),
				escapeMarkdownV2(decimal.NewFromFloat(bet.Odds).StringFixed(2)))
		}
	}

	if op.Analysis != nil {
		fmt.Fprintf(&b, "\n🔒 Kept profit: *%s*\n", money(op.Analysis.KeptProfit))
	}
	return b.String()
}

func money(v float64) string {
	return escapeMarkdownV2(decimal.NewFromFloat(v).StringFixed(2))
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
