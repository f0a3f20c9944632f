package handlers

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"studio-ai/internal/domain"
	"studio-ai/internal/imageinput"
	"studio-ai/internal/mediagroup"
	"studio-ai/internal/resultview"
	"studio-ai/internal/studio"
)

// Messenger is the part of the Telegram client the handler talks to.
type Messenger interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (int, error)
	EditTextWithKeyboard(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(callbackID, text string, alert bool) error
	SendTyping(chatID int64)
	SendPhoto(chatID int64, img imageinput.EncodedImage, caption string) error
	SendDocument(chatID int64, dl resultview.Download, caption string) error
	DownloadImage(ctx context.Context, fileID string, limit int64) (imageinput.EncodedImage, error)
}

type Options struct {
	Telegram       Messenger
	Session        *studio.Session
	OwnerID        int64
	Logger         *slog.Logger
	MaxUploadBytes int64
	// Location formats result captions; nil means time.Local.
	Location *time.Location
}

// Handler drives one studio session from the owner's Telegram chat.
type Handler struct {
	tg         Messenger
	session    *studio.Session
	ownerID    int64
	logger     *slog.Logger
	maxUpload  int64
	loc        *time.Location
	aggregator *mediagroup.Aggregator
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = imageinput.DefaultMaxBytes
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Handler{
		tg:        opts.Telegram,
		session:   opts.Session,
		ownerID:   opts.OwnerID,
		logger:    logger,
		maxUpload: maxUpload,
		loc:       loc,
	}
}

func (h *Handler) SetMediaGroupAggregator(ag *mediagroup.Aggregator) {
	h.aggregator = ag
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message == nil {
		return nil
	}

	msg := update.Message
	chatID := msg.Chat.ID
	if chatID != h.ownerID {
		h.logger.Warn("ignoring message from non-owner chat", "chat_id", chatID)
		return h.tg.SendText(chatID, textNotOwner)
	}

	if msg.IsCommand() {
		return h.handleCommand(ctx, chatID, msg)
	}

	if fileID, ok := imageFileID(msg); ok {
		return h.handlePhoto(ctx, chatID, msg, fileID)
	}

	if text := strings.TrimSpace(msg.Text); text != "" {
		h.session.SetBackground(text)
		return h.tg.SendText(chatID, textBackgroundSet+text)
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		if err := h.tg.SendText(chatID, helpText()); err != nil {
			return err
		}
		return h.renderPanel(chatID, 0)
	case "settings":
		return h.renderPanel(chatID, 0)
	case "bg":
		if args == "" {
			return h.tg.SendText(chatID, backgroundText(h.session.Snapshot().Settings))
		}
		h.session.SetBackground(args)
		return h.tg.SendText(chatID, textBackgroundSet+args)
	case "mood":
		if args == "" {
			return h.tg.SendText(chatID, moodUsage())
		}
		if err := h.session.SetMood(domain.Mood(args)); err != nil {
			return h.tg.SendText(chatID, moodUsage())
		}
		return h.tg.SendText(chatID, textMoodSet+h.session.Snapshot().Settings.Mood.Label())
	case "ratio":
		if args == "" {
			return h.tg.SendText(chatID, ratioUsage())
		}
		if err := h.session.SetAspectRatio(domain.AspectRatio(args)); err != nil {
			return h.tg.SendText(chatID, ratioUsage())
		}
		return h.tg.SendText(chatID, textRatioSet+string(h.session.Snapshot().Settings.AspectRatio))
	case "remove":
		slot, err := domain.ParseSlot(args)
		if err != nil {
			return h.tg.SendText(chatID, textRemoveUsage)
		}
		if err := h.session.SetImage(slot, nil); err != nil {
			return err
		}
		return h.tg.SendText(chatID, textImageRemoved+slotLabel(slot))
	case "analyze":
		return h.analyze(ctx, chatID)
	case "generate":
		return h.generate(ctx, chatID)
	case "download":
		return h.download(chatID)
	case "clear":
		h.session.Dismiss()
		return h.tg.SendText(chatID, textResultCleared)
	case "status":
		return h.tg.SendText(chatID, statusText(h.session.Snapshot(), h.loc))
	default:
		return h.tg.SendText(chatID, textUnknownCommand)
	}
}

func (h *Handler) analyze(ctx context.Context, chatID int64) error {
	h.tg.SendTyping(chatID)

	text, err := h.session.Analyze(ctx)
	if err != nil {
		return h.tg.SendText(chatID, h.failureText(err))
	}
	return h.tg.SendText(chatID, textSuggestion+text)
}

func (h *Handler) generate(ctx context.Context, chatID int64) error {
	if err := h.tg.SendText(chatID, resultview.BusyText); err != nil {
		h.logger.Warn("send busy notice failed", "err", err)
	}
	h.tg.SendTyping(chatID)

	result, err := h.session.Generate(ctx)
	if err != nil {
		return h.tg.SendText(chatID, h.failureText(err))
	}
	return h.tg.SendPhoto(chatID, result.Image, resultview.Caption(*result, h.loc))
}

func (h *Handler) download(chatID int64) error {
	dl, ok := h.session.Download()
	if !ok {
		return h.tg.SendText(chatID, textNoResult)
	}
	return h.tg.SendDocument(chatID, dl, dl.Filename)
}

// failureText prefers the message the session recorded for the failed
// action, which is never the raw transport error.
func (h *Handler) failureText(err error) string {
	if msg := studio.UserMessage(err); msg != "" {
		return msg
	}
	if msg := h.session.Snapshot().Error; msg != "" {
		return msg
	}
	return studio.MsgGenerateFailed
}
