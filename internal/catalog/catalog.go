package catalog

import "studio-ai/internal/domain"

type NamedOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// NavItem is one destination in the sidebar. Only the product photo page
// is implemented; the others are listed but do not route anywhere.
type NavItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

const (
	AppTitle  = "Studio AI"
	PageTitle = "Foto Produk Profesional"
	PageLead  = "Unggah gambar produk Anda dan biarkan AI menyempurnakannya."
)

var navItems = []NavItem{
	{ID: "kombinasi", Label: "Kombinasi Gambar", Icon: "image-plus"},
	{ID: "produk", Label: "Foto Produk Profesional", Icon: "shopping-bag", Active: true},
	{ID: "banner", Label: "Desain Banner Produk", Icon: "layout-template"},
	{ID: "story", Label: "Desain Story", Icon: "history"},
}

func NavItems() []NavItem {
	out := make([]NavItem, len(navItems))
	copy(out, navItems)
	return out
}

func Moods() []NamedOption {
	moods := domain.Moods()
	out := make([]NamedOption, 0, len(moods))
	for _, m := range moods {
		out = append(out, NamedOption{Key: string(m), Name: m.Label()})
	}
	return out
}

func AspectRatios() []NamedOption {
	ratios := domain.AspectRatios()
	out := make([]NamedOption, 0, len(ratios))
	for _, r := range ratios {
		out = append(out, NamedOption{Key: string(r), Name: string(r)})
	}
	return out
}

func Slots() []NamedOption {
	return []NamedOption{
		{Key: string(domain.SlotProduct), Name: "Gambar Produk (Wajib)"},
		{Key: string(domain.SlotModel), Name: "Model (Opsional)"},
		{Key: string(domain.SlotLogo), Name: "Logo (Opsional)"},
	}
}
