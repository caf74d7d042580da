// Package scoring computes the composite post relevance score: four
// component scores in [0,1] combined into a weighted total and a tier label.
// Everything here is pure computation; no I/O.
package scoring

import (
	"prospector/internal/model"
)

// Label is the discrete tier derived from the total score.
type Label string

const (
	LabelGreen  Label = "green"
	LabelYellow Label = "yellow"
	LabelRed    Label = "red"
)

// Weights blends the four component scores. They conventionally sum to 1.0
// but that is not enforced.
type Weights struct {
	Velocity      float64
	Relevance     float64
	Openness      float64
	AuthorQuality float64
}

// DefaultWeights returns the standard component blend.
func DefaultWeights() Weights {
	return Weights{
		Velocity:      0.35,
		Relevance:     0.35,
		Openness:      0.20,
		AuthorQuality: 0.10,
	}
}

// Thresholds are the tier boundaries. GreenMin must be >= YellowMin.
type Thresholds struct {
	GreenMin  float64
	YellowMin float64
}

// DefaultThresholds returns the standard tier boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{GreenMin: 0.72, YellowMin: 0.55}
}

// AuthorLists are the distinct author-quality lists. They are separate from
// the gate's keyword blacklist on purpose.
type AuthorLists struct {
	Whitelist []string
	Blacklist []string
}

// Result is the immutable scoring outcome for one post.
type Result struct {
	PostID         string
	Velocity       float64
	Relevance      float64
	Openness       float64
	AuthorQuality  float64
	Total          float64
	Label          Label
	BestTopic      string
	BestSimilarity float64
	GatePassed     bool
	GateReason     string
}

// Score computes all four components and the combined label for a post.
// taxonomyVecs maps taxonomy labels to their embeddings; postVec is the
// post text embedding (index-aligned with the fetch stage by the caller).
func Score(post model.Post, postVec []float32, taxonomyVecs map[string][]float32,
	weights Weights, thresholds Thresholds, lists AuthorLists, minutesSince float64) Result {

	velocity := Velocity(post.Likes, post.Replies, post.Reshares, minutesSince, post.AuthorFollowers)
	relevance, bestTopic, bestSim := Relevance(postVec, taxonomyVecs)
	openness := Openness(post.Text)
	authorQuality := AuthorQuality(post.AuthorHandle, lists.Whitelist, lists.Blacklist)

	total := weights.Velocity*velocity +
		weights.Relevance*relevance +
		weights.Openness*openness +
		weights.AuthorQuality*authorQuality

	return Result{
		PostID:         post.ID,
		Velocity:       velocity,
		Relevance:      relevance,
		Openness:       openness,
		AuthorQuality:  authorQuality,
		Total:          total,
		Label:          LabelFromScore(total, thresholds),
		BestTopic:      bestTopic,
		BestSimilarity: bestSim,
		GatePassed:     true,
	}
}

// LabelFromScore maps a total score to a tier. Monotonic in the score.
func LabelFromScore(total float64, t Thresholds) Label {
	switch {
	case total >= t.GreenMin:
		return LabelGreen
	case total >= t.YellowMin:
		return LabelYellow
	default:
		return LabelRed
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
