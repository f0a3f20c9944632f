package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"studio-ai/internal/imageinput"
)

var (
	ErrUnknownMood        = errors.New("unknown mood")
	ErrUnknownAspectRatio = errors.New("unknown aspect ratio")
	ErrUnknownSlot        = errors.New("unknown image slot")
)

type Mood string

const (
	MoodBright Mood = "bright"
	MoodDark   Mood = "dark"
)

func (m Mood) Label() string {
	switch m {
	case MoodDark:
		return "Gelap / Dramatis"
	default:
		return "Terang"
	}
}

// ParseMood accepts the wire keys and the Indonesian labels.
func ParseMood(value string) (Mood, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "bright", "terang":
		return MoodBright, nil
	case "dark", "gelap", "gelap / dramatis", "dramatis":
		return MoodDark, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMood, value)
}

func Moods() []Mood {
	return []Mood{MoodBright, MoodDark}
}

type AspectRatio string

const (
	AspectSquare      AspectRatio = "1:1"
	AspectFourThree   AspectRatio = "4:3"
	AspectSixteenNine AspectRatio = "16:9"
	AspectNineSixteen AspectRatio = "9:16"
)

func ParseAspectRatio(value string) (AspectRatio, error) {
	v := AspectRatio(strings.TrimSpace(value))
	for _, r := range AspectRatios() {
		if r == v {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAspectRatio, value)
}

func AspectRatios() []AspectRatio {
	return []AspectRatio{AspectSquare, AspectFourThree, AspectSixteenNine, AspectNineSixteen}
}

// Slot names one of the three image inputs.
type Slot string

const (
	SlotProduct Slot = "product"
	SlotModel   Slot = "model"
	SlotLogo    Slot = "logo"
)

func ParseSlot(value string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(value))) {
	case SlotProduct, "produk":
		return SlotProduct, nil
	case SlotModel:
		return SlotModel, nil
	case SlotLogo:
		return SlotLogo, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, value)
}

func Slots() []Slot {
	return []Slot{SlotProduct, SlotModel, SlotLogo}
}

// Settings is everything the user configures for one product shot.
type Settings struct {
	ProductImage     *imageinput.EncodedImage
	ModelImage       *imageinput.EncodedImage
	LogoImage        *imageinput.EncodedImage
	BackgroundPrompt string
	Mood             Mood
	AspectRatio      AspectRatio
}

func DefaultSettings() Settings {
	return Settings{
		Mood:        MoodBright,
		AspectRatio: AspectSquare,
	}
}

func (s Settings) Image(slot Slot) *imageinput.EncodedImage {
	switch slot {
	case SlotProduct:
		return s.ProductImage
	case SlotModel:
		return s.ModelImage
	case SlotLogo:
		return s.LogoImage
	}
	return nil
}

// SetImage replaces one slot; nil removes the image.
func (s *Settings) SetImage(slot Slot, img *imageinput.EncodedImage) error {
	switch slot {
	case SlotProduct:
		s.ProductImage = img
	case SlotModel:
		s.ModelImage = img
	case SlotLogo:
		s.LogoImage = img
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return nil
}

// Result is one generated product shot. It is never mutated after creation.
type Result struct {
	Image     imageinput.EncodedImage
	Timestamp time.Time
}
