package gemini

import (
	"strings"

	"google.golang.org/genai"
)

type PartKind int

const (
	PartText PartKind = iota
	PartInline
)

// Part is a response segment tagged as either text or inline binary data.
type Part struct {
	Kind     PartKind
	Text     string
	MimeType string
	Data     []byte
}

// responseParts flattens the first candidate of a response into tagged parts.
// Thought summaries and empty segments are dropped.
func responseParts(resp *genai.GenerateContentResponse) []Part {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}

	out := make([]Part, 0, len(candidate.Content.Parts))
	for _, p := range candidate.Content.Parts {
		switch {
		case p == nil || p.Thought:
			continue
		case p.InlineData != nil && len(p.InlineData.Data) > 0:
			out = append(out, Part{Kind: PartInline, MimeType: p.InlineData.MIMEType, Data: p.InlineData.Data})
		case p.Text != "":
			out = append(out, Part{Kind: PartText, Text: p.Text})
		}
	}
	return out
}

// FirstInline scans parts in order and returns the first inline-binary one.
func FirstInline(parts []Part) (Part, bool) {
	for _, p := range parts {
		if p.Kind == PartInline {
			return p, true
		}
	}
	return Part{}, false
}

func JoinText(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if p.Kind == PartText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
