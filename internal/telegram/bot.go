package telegram

import (
	"context"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zelda-ai/internal/console"
)

// Bot is the optional remote operator surface: the configured admin can
// start/pause/resume/quit the session and query status from chat. It gates
// the same control signals as the console listener.
type Bot struct {
	api      *tgbotapi.BotAPI
	adminID  int64
	controls *console.Controls
	status   func() string
}

func New(botToken string, adminID int64, controls *console.Controls, status func() string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:      api,
		adminID:  adminID,
		controls: controls,
		status:   status,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(update.Message)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(msg *tgbotapi.Message) {
	if msg.From.ID != b.adminID {
		log.Printf("Unauthorized control attempt by user ID: %d, username: @%s", msg.From.ID, msg.From.UserName)
		return
	}

	cmd := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(msg.Text, "/")))
	switch cmd {
	case "start_ai", "start":
		b.controls.Start()
		b.reply(msg.Chat.ID, "🚀 AI decision-making started!")
	case "pause":
		b.controls.Pause()
		b.reply(msg.Chat.ID, "⏸️ AI paused")
	case "resume":
		b.controls.Start()
		b.reply(msg.Chat.ID, "▶️ AI resumed")
	case "quit":
		b.controls.RequestQuit()
		b.reply(msg.Chat.ID, "👋 Stopping session...")
	case "status":
		if b.status != nil {
			b.reply(msg.Chat.ID, b.status())
		}
	default:
		b.reply(msg.Chat.ID, "Commands: /start_ai /pause /resume /quit /status")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}
