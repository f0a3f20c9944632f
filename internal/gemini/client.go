package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/genai"

	"studio-ai/internal/domain"
	"studio-ai/internal/imageinput"
)

const (
	DefaultAnalysisModel = "gemini-3-flash-preview"
	DefaultImageModel    = "gemini-2.5-flash-image"
)

// Models is the slice of the genai API this package calls. *genai.Models
// satisfies it.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Options struct {
	// APIKey is consulted on every call. When nil, GEMINI_API_KEY is read
	// from the environment at call time.
	APIKey        func() string
	BaseURL       string
	APIVersion    string
	AnalysisModel string
	ImageModel    string
	HTTPClient    *http.Client
	Logger        *slog.Logger

	// NewModels replaces the genai client factory, mostly for tests.
	NewModels func(ctx context.Context) (Models, error)
}

type Client struct {
	apiKey        func() string
	baseURL       string
	apiVersion    string
	analysisModel string
	imageModel    string
	httpClient    *http.Client
	logger        *slog.Logger
	newModels     func(ctx context.Context) (Models, error)
}

func New(opts Options) *Client {
	apiKey := opts.APIKey
	if apiKey == nil {
		apiKey = func() string { return strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) }
	}

	analysisModel := strings.TrimSpace(opts.AnalysisModel)
	if analysisModel == "" {
		analysisModel = DefaultAnalysisModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = DefaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:        apiKey,
		baseURL:       strings.TrimSpace(opts.BaseURL),
		apiVersion:    strings.TrimSpace(opts.APIVersion),
		analysisModel: analysisModel,
		imageModel:    imageModel,
		httpClient:    opts.HTTPClient,
		logger:        logger,
		newModels:     opts.NewModels,
	}
}

// Analyze asks the text model for a background suggestion for the product.
func (c *Client) Analyze(ctx context.Context, productImage imageinput.EncodedImage) (string, error) {
	parts := []*genai.Part{
		imagePart(productImage),
		genai.NewPartFromText(analysisPrompt),
	}

	resp, err := c.generate(ctx, c.analysisModel, parts, nil)
	if err != nil {
		return "", fmt.Errorf("analyze product image: %w", err)
	}

	text := JoinText(responseParts(resp))
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("gemini analysis returned no text", "model", c.analysisModel)
		return FallbackSuggestion, nil
	}
	return text, nil
}

// Generate requests a composited product shot. It returns nil without
// calling the service when there is no product image, and nil when the
// response carries no inline image.
func (c *Client) Generate(ctx context.Context, settings domain.Settings) (*imageinput.EncodedImage, error) {
	if settings.ProductImage == nil {
		return nil, nil
	}

	parts := RequestParts(settings)
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(settings.AspectRatio),
		},
	}

	resp, err := c.generate(ctx, c.imageModel, parts, config)
	if err != nil {
		return nil, fmt.Errorf("generate product photo: %w", err)
	}

	inline, ok := FirstInline(responseParts(resp))
	if !ok {
		c.logger.Warn("gemini returned no image", "model", c.imageModel, "finish_reason", finishReason(resp))
		return nil, nil
	}

	img := imageinput.New(inline.Data, inline.MimeType)
	return &img, nil
}

// RequestParts lays out the generation request: product, optional model,
// optional logo, then the instruction text.
func RequestParts(settings domain.Settings) []*genai.Part {
	parts := make([]*genai.Part, 0, 4)
	for _, img := range []*imageinput.EncodedImage{settings.ProductImage, settings.ModelImage, settings.LogoImage} {
		if img == nil {
			continue
		}
		parts = append(parts, imagePart(*img))
	}
	return append(parts, genai.NewPartFromText(BuildInstruction(settings.BackgroundPrompt, settings.Mood)))
}

func (c *Client) generate(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	models, err := c.models(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini request", "model", model, "parts", len(parts))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	return models.GenerateContent(ctx, model, contents, config)
}

func (c *Client) models(ctx context.Context) (Models, error) {
	if c.newModels != nil {
		return c.newModels(ctx)
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.apiKey(),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client.Models, nil
}

func imagePart(img imageinput.EncodedImage) *genai.Part {
	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: img.Data}}
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}
