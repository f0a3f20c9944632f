package gemini

import (
	"fmt"
	"strings"

	"studio-ai/internal/domain"
)

const analysisPrompt = "Describe this product in detail for a professional photoshoot. " +
	"Suggest a background and lighting that would make it look premium and appealing. " +
	"Keep the description concise but descriptive for an AI image generator."

// FallbackSuggestion is returned by Analyze when the model answers without text.
const FallbackSuggestion = "Produk berkualitas tinggi dengan pencahayaan profesional."

const (
	brightLighting = "with bright, natural, high-key studio lighting, soft shadows"
	darkLighting   = "with moody, dramatic, cinematic low-key lighting, deep shadows, professional contrast"
)

func lightingFor(mood domain.Mood) string {
	if mood == domain.MoodDark {
		return darkLighting
	}
	return brightLighting
}

// BuildInstruction composes the generation text from the background
// description and the mood. Same inputs always give the same bytes.
func BuildInstruction(background string, mood domain.Mood) string {
	var b strings.Builder
	b.WriteString("Professional product photography of the item in the first image.\n")
	b.WriteString(fmt.Sprintf("Set it in: %s.\n", strings.TrimSpace(background)))
	b.WriteString(fmt.Sprintf("Lighting: %s.\n", lightingFor(mood)))
	b.WriteString("Ensure the product remains the central focus, looking high-end and realistic.\n")
	b.WriteString("Make it look like a high-quality advertising campaign shoot.")
	return b.String()
}
