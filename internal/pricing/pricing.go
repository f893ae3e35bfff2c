// Package pricing maps model identifiers to per-token dollar rates.
package pricing

import "github.com/rs/zerolog/log"

// Rate is the dollar cost per 1,000 tokens.
type Rate struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Table maps a model identifier to its rate.
//
// A model missing from the table is priced at zero and a warning is logged. Usage is still
// recorded for it, so a missing entry under-reports cost rather than losing telemetry.
type Table map[string]Rate

// Default holds the rates the service ships with. Update it when provider pricing changes.
var Default = Table{
	"gpt-4":                  {InputPer1K: 0.03, OutputPer1K: 0.06},
	"gpt-4o-search-preview":  {InputPer1K: 0.025, OutputPer1K: 0.1},
	"gpt-4.1-nano":           {InputPer1K: 0.0001, OutputPer1K: 0.0004},
	"text-embedding-3-small": {InputPer1K: 0.00002},
	"text-embedding-3-large": {InputPer1K: 0.00013},
	"text-embedding-ada-002": {InputPer1K: 0.0001},
	"text-embedding-004":     {InputPer1K: 0.00001},
	"gemini-1.5-flash":       {InputPer1K: 0.000075, OutputPer1K: 0.0003},
	"gemini-2.0-flash":       {InputPer1K: 0.0001, OutputPer1K: 0.0004},
}

// Cost returns the dollar cost of a call. ok is false when the model has no entry.
func (t Table) Cost(model string, inputTokens, outputTokens int) (cost float64, ok bool) {
	rate, ok := t[model]
	if !ok {
		log.Warn().Str("model", model).Msg("pricing not available for model, recording zero cost")
		return 0, false
	}
	return float64(inputTokens)/1000*rate.InputPer1K + float64(outputTokens)/1000*rate.OutputPer1K, true
}
