package extract

import (
	"strings"

	"github.com/dvloznov/vibeledger/internal/domain"
	"google.golang.org/genai"
)

// TripMarker is prepended to descriptions logged while trip mode is on.
const TripMarker = "🇲🇽 "

// buildParserPrompt constructs the transaction-parser instruction. The
// current date anchors relative expressions ("yesterday"), the category list
// constrains classification, and the special rules encode the household's
// domain heuristics. The same feline rule is re-enforced locally by the
// normalizer; the prompt copy just improves first-pass accuracy.
func buildParserPrompt(pctx Context) string {
	today := pctx.Today.Format(domain.DateFormat)

	cats := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		cats[i] = string(c)
	}

	tripState := "OFF"
	if pctx.TripMode {
		tripState = "ON"
	}

	var b strings.Builder
	b.WriteString("You are a financial transaction parser. Extract the following JSON fields:\n")
	b.WriteString("- date: string, ISO format \"YYYY-MM-DD\" (default to " + today + " if not found)\n")
	b.WriteString("- amount: number (positive for expense, negative for income)\n")
	b.WriteString("- description: string (short summary)\n")
	b.WriteString("- category: string (one of: " + strings.Join(cats, ", ") + ")\n")
	b.WriteString("- type: string (Shared or Personal) - guess from context. \"Dinner\" is usually Shared. \"Makeup\" is Personal.\n")
	b.WriteString("- is_subscription: boolean (true if it looks like Netflix, Spotify, or a recurring bill)\n\n")
	b.WriteString("Special Rules:\n")
	b.WriteString("1. If the text mentions 'cats', 'kitten', or 'litter', force category to 'Pet Care'.\n")
	b.WriteString("2. If trip mode is ON, prepend \"" + TripMarker + "\" to the start of the description.\n")
	b.WriteString("3. If the input is a receipt image, extract the total as the amount.\n\n")
	b.WriteString("Input context: Trip Mode is " + tripState + ".\n")

	return b.String()
}

// responseSchema constrains the model to the canonical transaction shape so
// the response parses deterministically instead of via free-text scraping.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":            {Type: genai.TypeString},
			"amount":          {Type: genai.TypeNumber},
			"description":     {Type: genai.TypeString},
			"category":        {Type: genai.TypeString},
			"type":            {Type: genai.TypeString, Enum: []string{string(domain.TypeShared), string(domain.TypePersonal)}},
			"is_subscription": {Type: genai.TypeBoolean},
		},
		Required: []string{"amount", "description", "category", "type"},
	}
}
