package studio

import (
	"context"
	"errors"
	"strings"

	"studio-ai/internal/domain"
	"studio-ai/internal/resultview"
)

// Analyze asks the generator for a background description of the current
// product image and stores it in the settings.
func (s *Session) Analyze(ctx context.Context) (string, error) {
	snap := s.Snapshot()
	if snap.Settings.ProductImage == nil {
		s.SetError(MsgProductRequired)
		return "", ErrProductRequired
	}
	product := *snap.Settings.ProductImage

	release, err := s.acquire(actionAnalyze)
	if err != nil {
		return "", err
	}
	defer release()

	text, err := s.gen.Analyze(ctx, product)
	if err != nil {
		s.logger.Error("analyze failed", "error", err)
		s.SetError(MsgAnalyzeFailed)
		return "", err
	}

	s.Update(func(st *domain.Settings) { st.BackgroundPrompt = text })
	s.logger.Info("analysis complete", "chars", len(text))
	return text, nil
}

// Generate validates the settings, requests a product photo and replaces the
// current result on success. On any failure the previous result is kept.
func (s *Session) Generate(ctx context.Context) (*domain.Result, error) {
	snap := s.Snapshot()
	switch {
	case snap.Settings.ProductImage == nil:
		s.SetError(MsgProductRequired)
		return nil, ErrProductRequired
	case strings.TrimSpace(snap.Settings.BackgroundPrompt) == "":
		s.SetError(MsgBackgroundRequired)
		return nil, ErrBackgroundRequired
	}

	release, err := s.acquire(actionGenerate)
	if err != nil {
		return nil, err
	}
	defer release()

	img, err := s.gen.Generate(ctx, snap.Settings)
	if err != nil {
		s.logger.Error("generate failed", "error", err)
		s.SetError(MsgGenerateFailed)
		return nil, err
	}
	if img == nil {
		s.logger.Warn("generate returned no image",
			"mood", snap.Settings.Mood,
			"aspect_ratio", snap.Settings.AspectRatio,
		)
		s.SetError(MsgEmptyResult)
		return nil, ErrNoImage
	}

	result := &domain.Result{Image: *img, Timestamp: s.now()}
	_, _ = s.apply(func(st *State) error {
		st.Result = result
		return nil
	})
	s.logger.Info("product photo generated",
		"mime", img.MimeType,
		"bytes", len(img.Data),
	)
	return result, nil
}

// Dismiss clears the current result. It is a no-op without one.
func (s *Session) Dismiss() {
	if s.Snapshot().Result == nil {
		return
	}
	_, _ = s.apply(func(st *State) error {
		st.Result = nil
		return nil
	})
}

// Download materializes the current result for saving. ok is false when
// there is nothing to download.
func (s *Session) Download() (resultview.Download, bool) {
	return resultview.NewDownload(s.Snapshot().Result)
}

// UserMessage maps an action error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProductRequired):
		return MsgProductRequired
	case errors.Is(err, ErrBackgroundRequired):
		return MsgBackgroundRequired
	case errors.Is(err, ErrNoImage):
		return MsgEmptyResult
	case errors.Is(err, ErrBusy):
		return MsgBusy
	}
	return ""
}
