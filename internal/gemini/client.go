// Package gemini wraps the Gemini API for text generation. Review prompts
// run with a low temperature and a bounded output budget so critiques stay
// consistent across regenerations of the same album.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	// generateTimeout bounds a single generation call.
	generateTimeout = 45 * time.Second

	// Generation settings tuned for album critiques: low temperature for
	// consistency, output capped at roughly one review's worth of tokens.
	genTemperature     = 0.3
	genTopK            = 20
	genTopP            = 0.8
	genMaxOutputTokens = 1200
)

// Client generates text with the Gemini API.
type Client struct {
	client *genai.Client
}

// NewClient creates a Gemini client for the given API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client}, nil
}

// Generate sends the prompt to the configured model and returns the response
// text. The call is bounded by generateTimeout regardless of the parent
// context's deadline.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](genTemperature),
		TopK:            genai.Ptr[float32](genTopK),
		TopP:            genai.Ptr[float32](genTopP),
		MaxOutputTokens: genMaxOutputTokens,
	}

	modelName := GetModelName()
	callStart := time.Now()
	log.Debug().Str("model", modelName).Int("promptLength", len(prompt)).Msg("Starting Gemini API call")

	resp, err := c.client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), config)
	duration := time.Since(callStart)
	if err != nil {
		log.Error().Err(err).Dur("duration", duration).Msg("Gemini generation failed")
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("received empty response from Gemini API")
	}

	text := resp.Text()
	log.Debug().Dur("duration", duration).Int("responseLength", len(text)).Msg("Gemini generation complete")
	return text, nil
}
