package imageinput

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const fallbackMime = "image/png"

var (
	ErrNotImage   = errors.New("file is not an image")
	ErrTooLarge   = errors.New("file is too large")
	ErrEmpty      = errors.New("file is empty")
	ErrBadDataURI = errors.New("invalid data uri")
)

// EncodedImage is a mime-tagged image payload. It is sent to Gemini as
// inline data.
type EncodedImage struct {
	MimeType string
	Data     []byte
}

func New(data []byte, mimeType string) EncodedImage {
	mimeType = normalizeMime(mimeType)
	if mimeType == "" {
		mimeType = fallbackMime
	}
	return EncodedImage{MimeType: mimeType, Data: data}
}

// Extension returns a file extension for the mime type, ".png" when unknown.
func (img EncodedImage) Extension() string {
	switch normalizeMime(img.MimeType) {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

var dataURIRegex = regexp.MustCompile(`^data:([^;,]+)?(;[^,]*)?,`)

// ParseDataURI accepts "data:<mime>;base64,<payload>", as produced by a
// browser FileReader, or a bare base64 payload.
func ParseDataURI(value string) (EncodedImage, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return EncodedImage{}, ErrEmpty
	}

	mimeType := fallbackMime
	payload := value
	if strings.HasPrefix(value, "data:") {
		matches := dataURIRegex.FindStringSubmatch(value)
		if matches == nil {
			return EncodedImage{}, ErrBadDataURI
		}
		if !strings.Contains(matches[2], "base64") {
			return EncodedImage{}, fmt.Errorf("%w: payload is not base64", ErrBadDataURI)
		}
		if m := strings.TrimSpace(matches[1]); m != "" {
			mimeType = m
		}
		payload = value[len(matches[0]):]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return EncodedImage{}, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	return New(data, mimeType), nil
}

// ResolveMime picks the mime type for an uploaded file: the declared type
// when it is specific, otherwise sniffed from the content.
func ResolveMime(declared string, data []byte) string {
	mimeType := normalizeMime(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeMime(http.DetectContentType(data))
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		return ""
	}
	return mimeType
}

func normalizeMime(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ";") {
		value = strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	}
	return strings.ToLower(value)
}
