package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-ai/internal/imageinput"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, MoodBright, s.Mood)
	assert.Equal(t, AspectSquare, s.AspectRatio)
	assert.Nil(t, s.ProductImage)
	assert.Empty(t, s.BackgroundPrompt)
}

func TestParseMood(t *testing.T) {
	tests := []struct {
		in   string
		want Mood
		ok   bool
	}{
		{"bright", MoodBright, true},
		{" Terang ", MoodBright, true},
		{"DARK", MoodDark, true},
		{"Gelap / Dramatis", MoodDark, true},
		{"neon", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMood(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrUnknownMood)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAspectRatio(t *testing.T) {
	for _, r := range AspectRatios() {
		got, err := ParseAspectRatio(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseAspectRatio("3:2")
	assert.ErrorIs(t, err, ErrUnknownAspectRatio)
}

func TestSettings_SetImage(t *testing.T) {
	s := DefaultSettings()
	img := imageinput.New([]byte("x"), "image/png")

	require.NoError(t, s.SetImage(SlotLogo, &img))
	assert.Same(t, &img, s.Image(SlotLogo))
	assert.Nil(t, s.Image(SlotProduct))
	assert.Nil(t, s.Image(SlotModel))

	require.NoError(t, s.SetImage(SlotLogo, nil))
	assert.Nil(t, s.Image(SlotLogo))

	assert.ErrorIs(t, s.SetImage(Slot("banner"), &img), ErrUnknownSlot)
}

func TestParseSlot(t *testing.T) {
	slot, err := ParseSlot("Produk")
	require.NoError(t, err)
	assert.Equal(t, SlotProduct, slot)

	_, err = ParseSlot("background")
	assert.ErrorIs(t, err, ErrUnknownSlot)
}
