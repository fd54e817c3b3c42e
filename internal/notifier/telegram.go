package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramConfig 招聘方 Telegram 摘要配置。
type TelegramConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Token     string `mapstructure:"token" yaml:"-"`
	TokenFile string `mapstructure:"token-file" yaml:"token_file"`
	ChatID    int64  `mapstructure:"chat-id" yaml:"chat_id"`
}

// TelegramSender 抽象 bot 发送接口。
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramReporter 把批次摘要发到招聘群。
type TelegramReporter struct {
	bot    TelegramSender
	chatID int64
}

// NewTelegramReporter 使用 token 初始化 bot。
func NewTelegramReporter(cfg TelegramConfig) (*TelegramReporter, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return NewTelegramReporterWithBot(bot, cfg.ChatID), nil
}

// NewTelegramReporterWithBot 使用现成的 sender 创建 reporter。
func NewTelegramReporterWithBot(bot TelegramSender, chatID int64) *TelegramReporter {
	return &TelegramReporter{bot: bot, chatID: chatID}
}

func (*TelegramReporter) Name() string { return "telegram" }

func (t *TelegramReporter) Report(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatTelegram(s))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram summary: %w", err)
	}
	return nil
}

func formatTelegram(s Summary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>Screening run %s</b>\n", html.EscapeString(shortID(s.RunID))))
	b.WriteString(fmt.Sprintf("Strategy: %s\n", html.EscapeString(s.Strategy)))
	b.WriteString(fmt.Sprintf("Resumes: %d, passed: %d, rejected: %d\n", s.Total, s.Passed, s.Rejected))
	if len(s.Top) == 0 {
		b.WriteString("No candidate passed the cutoff.")
		return b.String()
	}
	b.WriteString("\n<b>Top candidates</b>\n")
	for i, e := range s.Top {
		b.WriteString(fmt.Sprintf("%d. %s (%s) %.2f\n", i+1, html.EscapeString(e.Name), html.EscapeString(e.Filename), e.Score))
	}
	return strings.TrimRight(b.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
