package pricing

import (
	"sort"

	"github.com/svdC1/mirumoji-open-api/internal/errs"
)

// ModelPrice is a model's USD price per one million tokens.
type ModelPrice struct {
	Input  float64
	Output float64
}

// Table maps model identifiers to prices. It doubles as the registry of
// supported models: a session cannot be opened on a model the table does not
// know. Tables are immutable after construction; share them freely.
type Table struct {
	prices map[string]ModelPrice
}

// New builds a table from the given prices. The map is copied.
func New(prices map[string]ModelPrice) Table {
	cp := make(map[string]ModelPrice, len(prices))
	for model, price := range prices {
		cp[model] = price
	}
	return Table{prices: cp}
}

// Default returns the built-in table.
func Default() Table {
	return New(map[string]ModelPrice{
		"gpt-4.1":          {Input: 2.0, Output: 8.0},
		"gpt-4.1-mini":     {Input: 0.4, Output: 1.6},
		"gpt-4o":           {Input: 2.5, Output: 10.0},
		"gpt-4o-mini":      {Input: 0.15, Output: 0.6},
		"gemini-2.5-flash": {Input: 0.3, Output: 2.5},
		"gemini-2.5-pro":   {Input: 1.25, Output: 10.0},
	})
}

// Merge returns a new table with the given overrides applied on top of t.
func (t Table) Merge(overrides map[string]ModelPrice) Table {
	merged := make(map[string]ModelPrice, len(t.prices)+len(overrides))
	for model, price := range t.prices {
		merged[model] = price
	}
	for model, price := range overrides {
		merged[model] = price
	}
	return Table{prices: merged}
}

// ResponsePrice computes the USD cost of one request.
func (t Table) ResponsePrice(model string, inputTokens, outputTokens int64) (float64, error) {
	price, ok := t.prices[model]
	if !ok {
		return 0, errs.Wrap(errs.ErrConfiguration, "model %q not supported", model)
	}
	inputCost := float64(inputTokens) * price.Input / 1e6
	outputCost := float64(outputTokens) * price.Output / 1e6
	return inputCost + outputCost, nil
}

// Supports reports whether the model identifier is registered.
func (t Table) Supports(model string) bool {
	_, ok := t.prices[model]
	return ok
}

// Models returns the registered model identifiers, sorted.
func (t Table) Models() []string {
	models := make([]string, 0, len(t.prices))
	for model := range t.prices {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
