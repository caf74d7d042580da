package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_generation_results_total",
		Help: "Generation outcomes per post by outcome tag",
	}, []string{"outcome"})

	generationRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prospector_generation_retries_total",
		Help: "LLM call retries triggered by rate-limit errors",
	})

	suggestionsFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_suggestions_filtered_total",
		Help: "Suggestions rejected by the quality filter, by reason class",
	}, []string{"reason"})
)

func filterReasonClass(reason string) string {
	switch {
	case reason == "too short" || reason == "too long":
		return "length"
	case len(reason) >= 7 && reason[:7] == "generic":
		return "generic"
	default:
		return "echo"
	}
}
