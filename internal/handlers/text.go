package handlers

import (
	"fmt"
	"strings"
	"time"

	"studio-ai/internal/catalog"
	"studio-ai/internal/domain"
	"studio-ai/internal/resultview"
	"studio-ai/internal/studio"
)

const (
	textNotOwner       = "Maaf, bot ini hanya melayani pemiliknya."
	textUnknownCommand = "Perintah tidak dikenal. Gunakan /help."
	textBackgroundSet  = "Latar belakang diatur: "
	textMoodSet        = "Suasana: "
	textRatioSet       = "Rasio aspek: "
	textImageSaved     = "Gambar disimpan: "
	textImageRemoved   = "Gambar dihapus: "
	textRemoveUsage    = "Gunakan: /remove product|model|logo"
	textSuggestion     = "Saran latar belakang:\n"
	textNoResult       = "Belum ada hasil untuk diunduh."
	textResultCleared  = "Hasil ditutup."
)

func helpText() string {
	var b strings.Builder
	b.WriteString(catalog.AppTitle + " - " + catalog.PageTitle + "\n")
	b.WriteString(catalog.PageLead + "\n\n")
	b.WriteString("Kirim foto produk. Beri caption \"model\" atau \"logo\" untuk mengisi slot lain, ")
	b.WriteString("atau kirim album untuk mengisi produk, model dan logo sekaligus.\n\n")
	b.WriteString("/bg <teks> - deskripsi latar belakang\n")
	b.WriteString("/mood terang|gelap - suasana pencahayaan\n")
	b.WriteString("/ratio 1:1|4:3|16:9|9:16 - rasio aspek\n")
	b.WriteString("/analyze - saran latar belakang dari AI\n")
	b.WriteString("/generate - buat foto produk\n")
	b.WriteString("/download - unduh hasil sebagai file\n")
	b.WriteString("/clear - tutup hasil\n")
	b.WriteString("/remove product|model|logo - hapus gambar\n")
	b.WriteString("/settings - panel pengaturan\n")
	b.WriteString("/status - ringkasan pengaturan\n\n")
	b.WriteString("Menu lain (segera hadir):")
	for _, item := range catalog.NavItems() {
		if item.Active {
			continue
		}
		b.WriteString("\n- " + item.Label)
	}
	return b.String()
}

func moodUsage() string {
	opts := catalog.Moods()
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Name)
	}
	return "Pilih suasana: " + strings.Join(names, ", ") + "\nContoh: /mood gelap"
}

func ratioUsage() string {
	opts := catalog.AspectRatios()
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Name)
	}
	return "Pilih rasio: " + strings.Join(names, ", ") + "\nContoh: /ratio 16:9"
}

func slotLabel(slot domain.Slot) string {
	for _, o := range catalog.Slots() {
		if o.Key == string(slot) {
			return o.Name
		}
	}
	return string(slot)
}

func backgroundText(s domain.Settings) string {
	if strings.TrimSpace(s.BackgroundPrompt) == "" {
		return studio.MsgBackgroundRequired
	}
	return "Latar belakang saat ini: " + s.BackgroundPrompt
}

func statusText(st studio.State, loc *time.Location) string {
	var b strings.Builder
	s := st.Settings
	for _, slot := range domain.Slots() {
		mark := "belum ada"
		if img := s.Image(slot); img != nil {
			mark = fmt.Sprintf("%s, %d KB", img.MimeType, len(img.Data)/1024)
		}
		fmt.Fprintf(&b, "%s: %s\n", slotLabel(slot), mark)
	}

	bg := s.BackgroundPrompt
	if strings.TrimSpace(bg) == "" {
		bg = "-"
	}
	fmt.Fprintf(&b, "Latar belakang: %s\n", bg)
	fmt.Fprintf(&b, "Suasana: %s\n", s.Mood.Label())
	fmt.Fprintf(&b, "Rasio aspek: %s\n", s.AspectRatio)

	switch resultview.Select(st.Result, st.Generating) {
	case resultview.ViewBusy:
		b.WriteString(resultview.BusyText)
	case resultview.ViewResult:
		b.WriteString(resultview.Caption(*st.Result, loc))
	default:
		b.WriteString(resultview.EmptyTitle)
	}
	if st.Analyzing {
		b.WriteString("\nAnalisa sedang berjalan...")
	}
	if st.Error != "" {
		b.WriteString("\n" + st.Error)
	}
	return b.String()
}
