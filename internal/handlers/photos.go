package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"studio-ai/internal/domain"
	"studio-ai/internal/imageinput"
	"studio-ai/internal/mediagroup"
	"studio-ai/internal/studio"
)

// imageFileID returns the file to download for a photo message or an image
// sent as a document.
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// slotFromCaption reads the target slot from the first word of a caption.
// Anything else, including no caption, means the product slot.
func slotFromCaption(caption string) domain.Slot {
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return domain.SlotProduct
	}
	slot, err := domain.ParseSlot(fields[0])
	if err != nil {
		return domain.SlotProduct
	}
	return slot
}

func (h *Handler) handlePhoto(ctx context.Context, chatID int64, msg *tgbotapi.Message, fileID string) error {
	if msg.MediaGroupID != "" && h.aggregator != nil {
		h.aggregator.Add(mediagroup.Item{
			ChatID:       chatID,
			MessageID:    msg.MessageID,
			MediaGroupID: msg.MediaGroupID,
			FileID:       fileID,
		})
		return nil
	}

	slot := slotFromCaption(msg.Caption)
	img, err := h.tg.DownloadImage(ctx, fileID, h.maxUpload)
	if err != nil {
		h.logger.Warn("photo download failed", "slot", slot, "err", err)
		h.session.SetError(studio.MsgReadFailed)
		return h.tg.SendText(chatID, studio.MsgReadFailed)
	}

	if err := h.session.SetImage(slot, &img); err != nil {
		return err
	}
	h.logger.Info("image received", "slot", slot, "mime", img.MimeType, "bytes", len(img.Data))
	return h.tg.SendText(chatID, textImageSaved+slotLabel(slot))
}

// HandleMediaGroup fills product, model and logo from an album in the order
// the photos were sent. Nothing changes unless every photo downloads.
func (h *Handler) HandleMediaGroup(ctx context.Context, group mediagroup.Group) {
	if group.ChatID != h.ownerID {
		return
	}
	if err := h.processAlbum(ctx, group); err != nil {
		h.logger.Error("media group processing failed", "err", err)
	}
}

func (h *Handler) processAlbum(ctx context.Context, group mediagroup.Group) error {
	slots := domain.Slots()
	fileIDs := group.FileIDs
	extra := 0
	if len(fileIDs) > len(slots) {
		extra = len(fileIDs) - len(slots)
		fileIDs = fileIDs[:len(slots)]
	}

	images := make([]imageinput.EncodedImage, len(fileIDs))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, fileID := range fileIDs {
		eg.Go(func() error {
			img, err := h.tg.DownloadImage(egCtx, fileID, h.maxUpload)
			if err != nil {
				return fmt.Errorf("%s: %w", slots[i], err)
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		h.logger.Warn("album download failed", "err", err)
		h.session.SetError(studio.MsgReadFailed)
		return h.tg.SendText(group.ChatID, studio.MsgReadFailed)
	}

	updates := make([]studio.ImageUpdate, 0, len(images))
	for i := range images {
		updates = append(updates, studio.ImageUpdate{Slot: slots[i], Image: &images[i]})
	}
	if err := h.session.SetImages(updates...); err != nil {
		return err
	}

	labels := make([]string, 0, len(images))
	for i := range images {
		labels = append(labels, slotLabel(slots[i]))
	}
	text := textImageSaved + strings.Join(labels, ", ")
	if extra > 0 {
		text += fmt.Sprintf("\n%d gambar lainnya diabaikan.", extra)
	}
	return h.tg.SendText(group.ChatID, text)
}
