package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studio-ai/internal/catalog"
	"studio-ai/internal/domain"
)

const panelCallbackPrefix = "st"

// The separator is not ":" because aspect ratios contain one.
const callbackSep = "|"

func cb(parts ...string) string {
	return panelCallbackPrefix + callbackSep + strings.Join(parts, callbackSep)
}

func parseCallback(data string) (action, arg string, ok bool) {
	parts := strings.Split(strings.TrimSpace(data), callbackSep)
	if len(parts) < 2 || parts[0] != panelCallbackPrefix {
		return "", "", false
	}
	if len(parts) >= 3 {
		arg = parts[2]
	}
	return parts[1], arg, true
}

func panelText(s domain.Settings) string {
	bg := s.BackgroundPrompt
	if strings.TrimSpace(bg) == "" {
		bg = "-"
	}
	return fmt.Sprintf("%s\n\nSuasana: %s\nRasio aspek: %s\nLatar belakang: %s",
		catalog.PageTitle, s.Mood.Label(), s.AspectRatio, bg)
}

func panelKeyboard(s domain.Settings) tgbotapi.InlineKeyboardMarkup {
	var moodRow []tgbotapi.InlineKeyboardButton
	for _, o := range catalog.Moods() {
		label := o.Name
		if o.Key == string(s.Mood) {
			label = "✅ " + label
		}
		moodRow = append(moodRow, tgbotapi.NewInlineKeyboardButtonData(label, cb("mood", o.Key)))
	}

	var ratioRow []tgbotapi.InlineKeyboardButton
	for _, o := range catalog.AspectRatios() {
		label := o.Name
		if o.Key == string(s.AspectRatio) {
			label = "✅ " + label
		}
		ratioRow = append(ratioRow, tgbotapi.NewInlineKeyboardButtonData(label, cb("ratio", o.Key)))
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		moodRow,
		ratioRow,
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Analisa AI", cb("analyze")),
			tgbotapi.NewInlineKeyboardButtonData("Buat Foto Produk", cb("generate")),
		},
		[]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("Unduh", cb("download")),
			tgbotapi.NewInlineKeyboardButtonData("Tutup Hasil", cb("clear")),
		},
	)
}

// renderPanel edits the panel in place when messageID is set, and sends a
// new one otherwise or when the edit fails.
func (h *Handler) renderPanel(chatID int64, messageID int) error {
	s := h.session.Snapshot().Settings
	text := panelText(s)
	kb := panelKeyboard(s)

	if messageID != 0 {
		if err := h.tg.EditTextWithKeyboard(chatID, messageID, text, kb); err == nil {
			return nil
		}
	}
	_, err := h.tg.SendTextWithKeyboard(chatID, text, kb)
	return err
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.Message == nil {
		return nil
	}
	action, arg, ok := parseCallback(q.Data)
	if !ok {
		return nil
	}

	chatID := q.Message.Chat.ID
	if chatID != h.ownerID {
		_ = h.tg.AnswerCallback(q.ID, textNotOwner, true)
		return nil
	}
	msgID := q.Message.MessageID

	switch action {
	case "mood":
		if err := h.session.SetMood(domain.Mood(arg)); err != nil {
			_ = h.tg.AnswerCallback(q.ID, moodUsage(), true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return h.renderPanel(chatID, msgID)
	case "ratio":
		if err := h.session.SetAspectRatio(domain.AspectRatio(arg)); err != nil {
			_ = h.tg.AnswerCallback(q.ID, ratioUsage(), true)
			return nil
		}
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return h.renderPanel(chatID, msgID)
	case "analyze":
		_ = h.tg.AnswerCallback(q.ID, "Menganalisa...", false)
		if err := h.analyze(ctx, chatID); err != nil {
			return err
		}
		return h.renderPanel(chatID, msgID)
	case "generate":
		_ = h.tg.AnswerCallback(q.ID, "Sedang membuat...", false)
		return h.generate(ctx, chatID)
	case "download":
		_ = h.tg.AnswerCallback(q.ID, "OK", false)
		return h.download(chatID)
	case "clear":
		h.session.Dismiss()
		_ = h.tg.AnswerCallback(q.ID, textResultCleared, false)
		return nil
	}
	return nil
}
