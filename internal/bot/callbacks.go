package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdRun    = "run"
	cmdLoad   = "load"
	cmdDelete = "delete"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, id, ok := strings.Cut(cb.Data, ":")
	if !ok || id == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"id", id,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cmdRun:
		b.handleRun(ctx, chatID)
	case cmdLoad:
		b.handleLoad(ctx, chatID, id)
	case "delete_confirm":
		f, err := b.svc.Get(ctx, chatID, id)
		if err != nil {
			b.reply(chatID, fmt.Sprintf("Saved filter %s not found.", id))
			return
		}
		b.replyWithKeyboard(chatID, fmt.Sprintf("Delete \"%s\"? This cannot be undone.", f.Name),
			tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonData("Yes, delete", cmdDelete+":"+id),
					tgbotapi.NewInlineKeyboardButtonData("Cancel", "noop:0"),
				),
			))
	case cmdDelete:
		b.handleDelete(ctx, chatID, id)
	}
}

func currentKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Run", cmdRun+":current"),
		),
	)
}
