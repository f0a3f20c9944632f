package resultview

import (
	"fmt"
	"time"

	"studio-ai/internal/domain"
)

// View is which of the three display states the result area shows.
type View string

const (
	ViewBusy   View = "busy"
	ViewResult View = "result"
	ViewEmpty  View = "empty"
)

const (
	BusyText       = "AI sedang menyusun pencahayaan dan latar belakang..."
	EmptyTitle     = "Hasil Gambar Anda Akan Muncul Di Sini"
	EmptySubtitle  = "Atur opsi di sebelah kiri dan klik \"Buat Foto Produk\" untuk melihat keajaibannya."
	captionPrefix  = "Hasil Terkini - "
	filenamePrefix = "product-shot-"
)

// Select picks the display state. An in-flight generation wins over a
// previous result.
func Select(result *domain.Result, generating bool) View {
	switch {
	case generating:
		return ViewBusy
	case result != nil:
		return ViewResult
	default:
		return ViewEmpty
	}
}

func Filename(r domain.Result) string {
	return fmt.Sprintf("%s%d%s", filenamePrefix, r.Timestamp.UnixMilli(), r.Image.Extension())
}

func Caption(r domain.Result, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return captionPrefix + r.Timestamp.In(loc).Format("15:04:05")
}

type Download struct {
	Filename string
	MimeType string
	Data     []byte
}

// NewDownload materializes the result as a file. It reports false when
// there is no result.
func NewDownload(r *domain.Result) (Download, bool) {
	if r == nil {
		return Download{}, false
	}
	return Download{
		Filename: Filename(*r),
		MimeType: r.Image.MimeType,
		Data:     r.Image.Data,
	}, true
}

// Model is the render-ready form of the result area. The image itself is
// referenced by URL so that state pushes stay small.
type Model struct {
	View      View   `json:"view"`
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// Present builds the model. imageURL maps the result to where the front-end
// fetches its bytes; nil leaves ImageURL empty.
func Present(result *domain.Result, generating bool, loc *time.Location, imageURL func(domain.Result) string) Model {
	m := Model{View: Select(result, generating)}
	switch m.View {
	case ViewBusy:
		m.Title = BusyText
	case ViewEmpty:
		m.Title = EmptyTitle
		m.Subtitle = EmptySubtitle
	case ViewResult:
		if imageURL != nil {
			m.ImageURL = imageURL(*result)
		}
		m.Timestamp = result.Timestamp.UnixMilli()
		m.Caption = Caption(*result, loc)
		m.Filename = Filename(*result)
	}
	return m
}
