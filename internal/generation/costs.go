package generation

import (
	"strings"
	"sync"

	"prospector/pkg/llm"
)

// Rates are USD per million tokens for one provider.
type Rates struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

var providerRates = map[string]Rates{
	"openai":    {InputPerMTok: 2.50, OutputPerMTok: 10.00},
	"anthropic": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
}

// RatesFor returns the fixed rates for a provider, defaulting to the openai
// table for unknown providers so costs are never silently zero.
func RatesFor(provider string) Rates {
	if rates, ok := providerRates[strings.ToLower(provider)]; ok {
		return rates
	}
	return providerRates["openai"]
}

// CostUSD converts token usage into dollars. Never negative.
func CostUSD(rates Rates, inputTokens, outputTokens int) float64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	return float64(inputTokens)/1e6*rates.InputPerMTok +
		float64(outputTokens)/1e6*rates.OutputPerMTok
}

// Tally accumulates token usage across calls. Linear in tokens, so the cost
// of sub-batches always sums to the cost of the combined batch.
type Tally struct {
	mu           sync.Mutex
	calls        int
	inputTokens  int
	outputTokens int
}

func (t *Tally) Add(usage llm.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	t.inputTokens += usage.InputTokens
	t.outputTokens += usage.OutputTokens
}

func (t *Tally) Cost(rates Rates) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CostUSD(rates, t.inputTokens, t.outputTokens)
}

func (t *Tally) Totals() (calls, inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls, t.inputTokens, t.outputTokens
}
