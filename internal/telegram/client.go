// Package telegram publishes analysis digests through the Telegram Bot API.
// A digest is one MarkdownV2 message per position listing the top entries of
// each ranking; delivery retries with a linear backoff and messages are
// paced to stay under the bot rate limit.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/rewired-gh/fantasy-insights/internal/analysis"
	"github.com/rewired-gh/fantasy-insights/internal/logger"
	"github.com/rewired-gh/fantasy-insights/internal/report"
)

var log = logger.Named("telegram")

// Telegram rejects messages longer than this many characters.
const maxMessageLen = 4096

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	limiter        *rate.Limiter
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
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
		// one message per second to a single chat
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// SendDigest posts the top entries of every ranking in the report, one
// message per position.
func (c *Client) SendDigest(ctx context.Context, rep *analysis.Report, topN int) error {
	messages := formatDigest(rep, topN)
	for i, text := range messages {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := c.send(ctx, text); err != nil {
			return fmt.Errorf("digest message %d/%d: %w", i+1, len(messages), err)
		}
	}
	log.Info("Sent digest %s: %d messages", rep.ID, len(messages))
	return nil
}

func (c *Client) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("Send attempt %d/%d failed: %v", i+1, c.maxRetries, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatDigest renders one message per position that has at least one
// ranked entry.
func formatDigest(rep *analysis.Report, topN int) []string {
	var messages []string
	for _, pr := range rep.Positions {
		var b strings.Builder
		fmt.Fprintf(&b, "🏈 *%s weekly insights* \\(%d weeks\\)\n",
			escapeMarkdownV2(string(pr.Position)), rep.LeagueWeeks)

		ranked := 0
		for _, r := range pr.Rankings {
			entries := r.Top(topN)
			if len(entries) == 0 {
				continue
			}
			ranked++
			fmt.Fprintf(&b, "\n*%s*\n", escapeMarkdownV2(report.Title(r.Metric)))
			for _, e := range entries {
				fmt.Fprintf(&b, "%d\\. %s %s\n", e.Rank, escapeMarkdownV2(e.Player), escapeMarkdownV2(summary(r.Metric, e)))
			}
		}
		if ranked == 0 {
			continue
		}
		messages = append(messages, truncate(b.String(), maxMessageLen))
	}
	return messages
}

// summary is the short detail shown next to a player name.
func summary(m analysis.Metric, e analysis.Entry) string {
	switch {
	case e.Breakout != nil:
		return "(" + report.Improvement(e.Breakout) + ")"
	case e.Trend != nil:
		return fmt.Sprintf("(%+.1f/wk)", e.Trend.Slope)
	case e.Season != nil:
		return fmt.Sprintf("(%.1f pts)", e.Season.TotalPoints)
	case e.Value != nil:
		return fmt.Sprintf("(%.1f pts/g at %.1f%%)", e.Value.PerGame, e.Value.RosterPct)
	case m == analysis.MetricConsistency:
		return fmt.Sprintf("(%.2f)", e.Score)
	}
	return fmt.Sprintf("(%.1f)", e.Score)
}

// truncate shortens s to at most n runes. It cuts at the last line break
// that fits so bold spans and escapes stay balanced.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n-1])
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		return cut[:i+1] + "…"
	}
	// single long line: never leave a dangling escape
	if strings.HasSuffix(cut, "\\") && !strings.HasSuffix(cut, "\\\\") {
		cut = cut[:len(cut)-1]
	}
	return cut + "…"
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
