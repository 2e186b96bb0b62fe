package ai

import "strings"

// perMillionTokenRates is a coarse, conservative cost table (USD per
// million tokens, input/output) used only to populate
// AgentResponse.CostUSD for the budget enforcer's MaxCostUSD check -
// not billing-accurate, just in the right order of magnitude per
// model family.
var perMillionTokenRates = map[string][2]float64{
	"claude-sonnet":    {3.0, 15.0},
	"claude-haiku":     {0.8, 4.0},
	"claude-opus":      {15.0, 75.0},
	"gemini-3-flash":   {0.15, 0.6},
	"gemini-3-pro":     {1.25, 5.0},
	"gemini-2.0-flash": {0.1, 0.4},
}

func estimateCostUSD(model string, inputTokens, outputTokens int) float64 {
	rates := [2]float64{1.0, 3.0}
	for prefix, r := range perMillionTokenRates {
		if strings.Contains(model, prefix) {
			rates = r
			break
		}
	}
	return (float64(inputTokens)/1_000_000)*rates[0] + (float64(outputTokens)/1_000_000)*rates[1]
}
