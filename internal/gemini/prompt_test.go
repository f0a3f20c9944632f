package gemini

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"studio-ai/internal/domain"
)

func TestBuildInstruction(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		a := BuildInstruction("on dark wood", domain.MoodDark)
		b := BuildInstruction("on dark wood", domain.MoodDark)
		assert.Equal(t, a, b)
	})

	t.Run("encodes background and mood", func(t *testing.T) {
		tests := []struct {
			mood domain.Mood
			want string
			not  string
		}{
			{domain.MoodBright, "high-key", "low-key"},
			{domain.MoodDark, "low-key", "high-key"},
		}
		for _, tt := range tests {
			t.Run(string(tt.mood), func(t *testing.T) {
				got := BuildInstruction("at a beach during sunset", tt.mood)
				assert.Contains(t, got, "Set it in: at a beach during sunset.")
				assert.Contains(t, got, tt.want)
				assert.NotContains(t, got, tt.not)
				assert.Contains(t, got, "central focus")
				assert.Contains(t, got, "advertising campaign")
			})
		}
	})

	t.Run("keeps the product reference first", func(t *testing.T) {
		got := BuildInstruction("studio", domain.MoodBright)
		assert.True(t, strings.HasPrefix(got, "Professional product photography of the item in the first image."))
	})
}

func TestFirstInline(t *testing.T) {
	parts := []Part{
		{Kind: PartText, Text: "a"},
		{Kind: PartInline, Data: []byte("1")},
		{Kind: PartInline, Data: []byte("2")},
	}
	p, ok := FirstInline(parts)
	assert.True(t, ok)
	assert.Equal(t, "1", string(p.Data))

	_, ok = FirstInline(parts[:1])
	assert.False(t, ok)

	_, ok = FirstInline(nil)
	assert.False(t, ok)
}

func TestResponseParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
		nil,
		{Text: ""},
		{Text: "hidden", Thought: true},
		{InlineData: &genai.Blob{MIMEType: "image/png"}},
		{Text: "visible"},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("x")}},
	}}}}}

	parts := responseParts(resp)
	if assert.Len(t, parts, 2) {
		assert.Equal(t, PartText, parts[0].Kind)
		assert.Equal(t, "visible", parts[0].Text)
		assert.Equal(t, PartInline, parts[1].Kind)
	}
	assert.Equal(t, "visible", JoinText(parts))

	assert.Nil(t, responseParts(nil))
	assert.Nil(t, responseParts(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}
