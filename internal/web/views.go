package web

import (
	"fmt"
	"time"

	"studio-ai/internal/catalog"
	"studio-ai/internal/domain"
	"studio-ai/internal/resultview"
	"studio-ai/internal/studio"
)

type apiError struct {
	Error string `json:"error"`
}

// imageRef points at a slot preview served by GET /api/images/{slot}. The
// rev query changes whenever the slot does.
type imageRef struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Bytes    int    `json:"bytes"`
}

type settingsView struct {
	ProductImage     *imageRef `json:"productImage,omitempty"`
	ModelImage       *imageRef `json:"modelImage,omitempty"`
	LogoImage        *imageRef `json:"logoImage,omitempty"`
	BackgroundPrompt string    `json:"backgroundPrompt"`
	Mood             string    `json:"mood"`
	AspectRatio      string    `json:"aspectRatio"`
}

// stateView is what the browser renders. The websocket pushes the same shape.
type stateView struct {
	Version    uint64           `json:"version"`
	Settings   settingsView     `json:"settings"`
	Analyzing  bool             `json:"analyzing"`
	Generating bool             `json:"generating"`
	Error      string           `json:"error,omitempty"`
	Result     resultview.Model `json:"result"`
}

type navView struct {
	Title        string                `json:"title"`
	PageTitle    string                `json:"pageTitle"`
	PageLead     string                `json:"pageLead"`
	Items        []catalog.NavItem     `json:"items"`
	Moods        []catalog.NamedOption `json:"moods"`
	AspectRatios []catalog.NamedOption `json:"aspectRatios"`
	Slots        []catalog.NamedOption `json:"slots"`
}

func newStateView(st studio.State, loc *time.Location) stateView {
	return stateView{
		Version: st.Version,
		Settings: settingsView{
			ProductImage:     newImageRef(st, domain.SlotProduct),
			ModelImage:       newImageRef(st, domain.SlotModel),
			LogoImage:        newImageRef(st, domain.SlotLogo),
			BackgroundPrompt: st.Settings.BackgroundPrompt,
			Mood:             string(st.Settings.Mood),
			AspectRatio:      string(st.Settings.AspectRatio),
		},
		Analyzing:  st.Analyzing,
		Generating: st.Generating,
		Error:      st.Error,
		Result:     resultview.Present(st.Result, st.Generating, loc, resultImageURL),
	}
}

func newNavView() navView {
	return navView{
		Title:        catalog.AppTitle,
		PageTitle:    catalog.PageTitle,
		PageLead:     catalog.PageLead,
		Items:        catalog.NavItems(),
		Moods:        catalog.Moods(),
		AspectRatios: catalog.AspectRatios(),
		Slots:        catalog.Slots(),
	}
}

func newImageRef(st studio.State, slot domain.Slot) *imageRef {
	img := st.Settings.Image(slot)
	if img == nil {
		return nil
	}
	return &imageRef{
		URL:      fmt.Sprintf("/api/images/%s?rev=%d", slot, st.ImageRevision(slot)),
		MimeType: img.MimeType,
		Bytes:    len(img.Data),
	}
}

func resultImageURL(r domain.Result) string {
	return fmt.Sprintf("/api/result/image?t=%d", r.Timestamp.UnixMilli())
}
