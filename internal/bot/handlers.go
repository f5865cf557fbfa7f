package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"agency_bot/internal/assistant"
	"agency_bot/internal/model"
	"agency_bot/internal/storage"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the Agency Assistant!

Describe what you are looking for in plain words and get a structured filter back.

Quick start:
1. /media positive TechCrunch coverage from last week
2. /influencers tech YouTubers with over 100k subscribers
3. /track TechCorp on Instagram and Twitter for 30 days

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Queries:
/media <text> - media monitoring filter (plain messages work too)
/influencers <text> - influencer search
/track <text> - social media tracker

Current filter:
/current - show the last generated filter
/run - apply it to the configured sources
/save <name> [| description] - save it

Saved filters:
/saved - list saved filters
/load <id> - make a saved filter current
/delete <id> - delete a saved filter

Saved trackers are checked periodically and new posts are sent here.`)
}

var queryUsage = map[model.Domain]string{
	model.DomainMedia:      "Usage: /media <what coverage you are looking for>",
	model.DomainInfluencer: "Usage: /influencers <what creators you are looking for>",
	model.DomainTracking:   "Usage: /track <brand, campaign or #hashtag to follow>",
}

func (b *Bot) handleQuery(chatID int64, kind model.Domain, text string) {
	if text == "" {
		b.reply(chatID, queryUsage[kind])
		return
	}

	c, err := b.svc.Interpret(chatID, kind, text)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.replyWithKeyboard(chatID, FormatCurrent(c), currentKeyboard())
}

func (b *Bot) handleCurrent(chatID int64) {
	c, ok := b.svc.Current(chatID)
	if !ok {
		b.reply(chatID, noCurrentText)
		return
	}
	b.replyWithKeyboard(chatID, FormatCurrent(c), currentKeyboard())
}

const noCurrentText = "No current filter. Send a query first, e.g. /media positive Wired coverage this week."

func (b *Bot) handleRun(ctx context.Context, chatID int64) {
	res, err := b.svc.Run(ctx, chatID)
	if errors.Is(err, assistant.ErrNoCurrent) {
		b.reply(chatID, noCurrentText)
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to run filter: %v", err))
		return
	}
	b.reply(chatID, FormatResults(res))
}

func (b *Bot) handleSave(ctx context.Context, chatID int64, args string) {
	name, description, err := ParseSaveArgs(args)
	if err != nil {
		b.reply(chatID, "Usage: /save <name> [| description]")
		return
	}

	f, err := b.svc.Save(ctx, chatID, name, description)
	if errors.Is(err, assistant.ErrNoCurrent) {
		b.reply(chatID, noCurrentText)
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save filter: %v", err))
		return
	}

	text := fmt.Sprintf("Saved \"%s\" (%s).\nID: %s", f.Name, f.Kind, f.ID)
	if f.Kind == model.DomainTracking {
		text += "\nNew matching posts will be sent here while the tracker is active."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleSaved(ctx context.Context, chatID int64) {
	filters, err := b.svc.List(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if len(filters) == 0 {
		b.reply(chatID, FormatSavedList(filters))
		return
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(filters))
	for _, f := range filters {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Load "+f.Name, cmdLoad+":"+f.ID),
			tgbotapi.NewInlineKeyboardButtonData("Delete", "delete_confirm:"+f.ID),
		))
	}
	b.replyWithKeyboard(chatID, FormatSavedList(filters), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

func (b *Bot) handleLoad(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /load <id>")
		return
	}

	c, err := b.svc.Load(ctx, chatID, id)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Saved filter %s not found.", id))
		return
	}
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to load filter: %v", err))
		return
	}
	b.replyWithKeyboard(chatID, FormatCurrent(c), currentKeyboard())
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args string) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /delete <id>")
		return
	}

	ok, err := b.svc.Delete(ctx, chatID, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error deleting filter: %v", err))
		return
	}
	if !ok {
		b.reply(chatID, fmt.Sprintf("Saved filter %s not found.", id))
		return
	}
	b.reply(chatID, fmt.Sprintf("Saved filter %s deleted.", id))
}
