// Package advisor answers free-text money questions and produces the witty
// "vibe check" summary. Both calls embed a serialized ledger snapshot into
// the prompt; the chat transcript shown to the user is display-only history
// and is never fed back here as structured state.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dvloznov/vibeledger/internal/domain"
	"google.golang.org/genai"
)

// NoVibesMessage is returned for an empty ledger without calling the model.
const NoVibesMessage = "No vibes yet. Start spending!"

// vibeCheckWindow is how many of the most recent records feed the summary.
const vibeCheckWindow = 10

// AdvisorError is a transport or model failure on a question. It is
// recoverable; the caller reports it inline and the ledger is untouched.
type AdvisorError struct {
	Err error
}

func (e *AdvisorError) Error() string {
	return fmt.Sprintf("advisor: %v", e.Err)
}

func (e *AdvisorError) Unwrap() error {
	return e.Err
}

// Client asks Gemini for financial guidance over a ledger snapshot.
type Client struct {
	gen     *genai.Client
	model   string
	timeout time.Duration
}

// NewClient creates an advisor client.
func NewClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*Client, error) {
	gen, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("advisor: create genai client: %w", err)
	}
	return &Client{gen: gen, model: model, timeout: timeout}, nil
}

// Ask answers a free-text question using the full current ledger as context.
// Stateless per question; no retry.
func (c *Client) Ask(ctx context.Context, question string, snapshot []domain.TransactionRecord) (string, error) {
	prompt, err := buildAdvisorPrompt(question, snapshot)
	if err != nil {
		return "", &AdvisorError{Err: err}
	}
	return c.generate(ctx, prompt)
}

// VibeCheck produces a two-sentence summary over the most recent records.
// An empty ledger short-circuits to NoVibesMessage without a model call.
func (c *Client) VibeCheck(ctx context.Context, snapshot []domain.TransactionRecord) (string, error) {
	if len(snapshot) == 0 {
		return NoVibesMessage, nil
	}
	prompt, err := buildVibeCheckPrompt(snapshot)
	if err != nil {
		return "", &AdvisorError{Err: err}
	}
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := c.gen.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", &AdvisorError{Err: fmt.Errorf("generate content: %w", err)}
	}

	text := resp.Text()
	if text == "" {
		return "", &AdvisorError{Err: fmt.Errorf("empty response from model")}
	}
	return text, nil
}

func buildAdvisorPrompt(question string, snapshot []domain.TransactionRecord) (string, error) {
	history, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("serialize ledger: %w", err)
	}

	return fmt.Sprintf(
		"You are a financial advisor for a couple. You have access to their transaction history: %s.\n"+
			"Answer the user's question: %q.\n"+
			"Be helpful, slightly cautious about money, but supportive of good vibes.\n",
		history, question), nil
}

func buildVibeCheckPrompt(snapshot []domain.TransactionRecord) (string, error) {
	recent := snapshot
	if len(recent) > vibeCheckWindow {
		recent = recent[len(recent)-vibeCheckWindow:]
	}

	data, err := json.Marshal(recent)
	if err != nil {
		return "", fmt.Errorf("serialize recent records: %w", err)
	}

	return fmt.Sprintf(
		"Analyze these recent transactions and give a 'Vibe Check' summary in 2 sentences.\n"+
			"Be casual and witty. Mention if we are spending too much on food or if we are doing good.\n"+
			"Data: %s\n",
		data), nil
}
