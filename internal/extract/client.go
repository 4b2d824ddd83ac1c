// Package extract wraps the Gemini call that turns free text and/or a
// receipt photo into candidate transaction fields. The response is
// structurally constrained to the canonical schema; anything that does not
// conform comes back as an ExtractionError, never as a silent partial guess.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/vibeledger/internal/logger"
	"google.golang.org/genai"
)

// Client calls Gemini to extract transaction fields.
type Client struct {
	gen     *genai.Client
	model   string
	timeout time.Duration
}

// NewClient creates an extraction client. The API key must already be
// validated by config; model and timeout come from config as well.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	gen, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("extract: create genai client: %w", err)
	}
	return &Client{gen: gen, model: model, timeout: timeout}, nil
}

// Extract sends the user input plus the parser prompt to the model and
// returns the candidate fields. Callers guarantee at least one of text or
// image is present. The outbound call is bounded by the configured timeout;
// a timeout surfaces as a transport ExtractionError.
func (c *Client) Extract(ctx context.Context, in Input, pctx Context) (RawFields, error) {
	log := logger.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var parts []*genai.Part
	if in.Text != "" {
		parts = append(parts, &genai.Part{Text: in.Text})
	}
	if len(in.Image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: in.ImageMIME,
				Data:     in.Image,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: buildParserPrompt(pctx)})

	contents := []*genai.Content{{Role: "user", Parts: parts}}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}

	resp, err := c.gen.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return RawFields{}, transportError("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return RawFields{}, schemaError("empty response from model")
	}

	fields, eerr := decodeRawFields(rawText)
	if eerr != nil {
		return RawFields{}, eerr
	}

	log.Debug().
		Float64("amount", *fields.Amount).
		Str("description", *fields.Description).
		Msg("extracted transaction fields")

	return fields, nil
}
