package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient wraps the Gemini API for JSON analysis and image
// description.
type GeminiClient struct {
	client      *genai.Client
	textModel   string
	visionModel string
}

// NewGeminiClient creates a Gemini client authenticated with an API key.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client:      client,
		textModel:   "gemini-2.0-flash",
		visionModel: "gemini-2.0-flash",
	}, nil
}

// WithTextModel overrides the text model.
func (c *GeminiClient) WithTextModel(model string) *GeminiClient {
	c.textModel = model
	return c
}

// WithVisionModel overrides the vision model.
func (c *GeminiClient) WithVisionModel(model string) *GeminiClient {
	c.visionModel = model
	return c
}

// GenerateJSON asks the model for a JSON reply at low temperature.
// Replies may still carry markdown fences; callers strip them.
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}

// DescribeImage sends the image and prompt to the vision model and
// returns its free-text description.
func (c *GeminiClient) DescribeImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.visionModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return resp.Text(), nil
}
