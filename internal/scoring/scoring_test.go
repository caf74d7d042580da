package scoring

import (
	"math"
	"testing"

	"prospector/internal/model"
)

func TestVelocityMonotonicInEngagement(t *testing.T) {
	base := Velocity(50, 10, 5, 30, 10000)
	if base <= 0 || base >= 1 {
		t.Fatalf("velocity out of (0,1): %f", base)
	}

	moreLikes := Velocity(51, 10, 5, 30, 10000)
	moreReplies := Velocity(50, 11, 5, 30, 10000)
	moreReshares := Velocity(50, 10, 6, 30, 10000)
	for i, scored := range []float64{moreLikes, moreReplies, moreReshares} {
		if scored < base {
			t.Fatalf("case %d: increasing engagement decreased velocity: %f < %f", i, scored, base)
		}
	}
}

func TestVelocityDecreasesWithAge(t *testing.T) {
	fresh := Velocity(50, 10, 5, 30, 10000)
	stale := Velocity(50, 10, 5, 300, 10000)
	if stale >= fresh {
		t.Fatalf("older post should score strictly lower: %f >= %f", stale, fresh)
	}
}

func TestVelocityDecreasesWithAudience(t *testing.T) {
	small := Velocity(50, 10, 5, 30, 1000)
	large := Velocity(50, 10, 5, 30, 1000000)
	if large > small {
		t.Fatalf("larger audience should not score higher: %f > %f", large, small)
	}
}

func TestVelocityRepliesWeighHeaviest(t *testing.T) {
	withReply := Velocity(0, 1, 0, 60, 5000)
	withLike := Velocity(1, 0, 0, 60, 5000)
	withReshare := Velocity(0, 0, 1, 60, 5000)
	if withReply <= withLike || withReply <= withReshare {
		t.Fatalf("reply should outweigh like (%f vs %f) and reshare (%f)", withReply, withLike, withReshare)
	}
}

func TestVelocityFloorsTinyAccounts(t *testing.T) {
	// Accounts below 100 followers normalize identically to 100.
	atFloor := Velocity(10, 2, 1, 15, 100)
	below := Velocity(10, 2, 1, 15, 3)
	if atFloor != below {
		t.Fatalf("follower floor not applied: %f != %f", atFloor, below)
	}
}

func TestRelevanceOrthogonalTaxonomy(t *testing.T) {
	taxonomy := map[string][]float32{
		"parenting": {1, 0, 0},
		"fitness":   {0, 1, 0},
	}
	score, label, sim := Relevance([]float32{1, 0, 0}, taxonomy)

	if label != "parenting" {
		t.Fatalf("unexpected best label: %q", label)
	}
	if math.Abs(sim-1.0) > 1e-9 {
		t.Fatalf("unexpected best similarity: %f", sim)
	}
	// 0.8*best + 0.2*(best - second) = 0.8*1.0 + 0.2*1.0
	if math.Abs(score-1.0) > 1e-9 {
		t.Fatalf("unexpected relevance: %f", score)
	}
}

func TestRelevanceRewardsUnambiguousMatch(t *testing.T) {
	clear := map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	}
	ambiguous := map[string][]float32{
		"a": {1, 0},
		"b": {1, 0.01},
	}
	clearScore, _, _ := Relevance([]float32{1, 0}, clear)
	ambiguousScore, _, _ := Relevance([]float32{1, 0}, ambiguous)
	if ambiguousScore >= clearScore {
		t.Fatalf("tie between topics should lower the score: %f >= %f", ambiguousScore, clearScore)
	}
}

func TestRelevanceDeterministic(t *testing.T) {
	taxonomy := map[string][]float32{
		"a": {0.2, 0.9, 0.1},
		"b": {0.7, 0.1, 0.4},
		"c": {0.3, 0.3, 0.9},
	}
	vec := []float32{0.5, 0.5, 0.5}
	s1, l1, sim1 := Relevance(vec, taxonomy)
	for i := 0; i < 50; i++ {
		s2, l2, sim2 := Relevance(vec, taxonomy)
		if s1 != s2 || l1 != l2 || sim1 != sim2 {
			t.Fatalf("relevance not deterministic on call %d", i)
		}
	}
	if s1 < 0 || s1 > 1 {
		t.Fatalf("relevance out of [0,1]: %f", s1)
	}
}

func TestRelevanceTieBreaksOnLabel(t *testing.T) {
	// Two labels with identical vectors tie on similarity; the winner must
	// be stable across calls despite map iteration order.
	taxonomy := map[string][]float32{
		"beta":  {1, 0},
		"alpha": {1, 0},
	}
	vec := []float32{1, 0}

	s1, l1, sim1 := Relevance(vec, taxonomy)
	if l1 != "alpha" {
		t.Fatalf("tie must resolve to the smaller label, got %q", l1)
	}
	// tied top similarities: margin is zero, score is 0.8*best
	if math.Abs(s1-0.8) > 1e-9 || math.Abs(sim1-1.0) > 1e-9 {
		t.Fatalf("unexpected tied score/sim: %f, %f", s1, sim1)
	}
	for i := 0; i < 200; i++ {
		s2, l2, sim2 := Relevance(vec, taxonomy)
		if s2 != s1 || l2 != l1 || sim2 != sim1 {
			t.Fatalf("tied relevance changed on call %d: (%f, %q, %f)", i, s2, l2, sim2)
		}
	}
}

func TestRelevanceEmptyTaxonomyFailsClosed(t *testing.T) {
	score, label, sim := Relevance([]float32{1, 0}, nil)
	if score != 0 || label != "unknown" || sim != 0 {
		t.Fatalf("expected fail-closed result, got (%f, %q, %f)", score, label, sim)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Fatalf("mismatched lengths should score 0: %f", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("zero vector should score 0: %f", got)
	}
}

func TestOpennessWhQuestion(t *testing.T) {
	got := Openness("Why does my toddler hate vegetables?")
	// baseline 0.05 + ends-with-? 0.25 + wh-prefix 0.25, no hedge words
	if math.Abs(got-0.55) > 1e-9 {
		t.Fatalf("unexpected openness: %f", got)
	}
}

func TestOpennessComponents(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"Just shipped the release.", 0.05},
		{"Shipping tomorrow?", 0.30},
		{"how to even start", 0.30},
		{"We might revisit this later.", 0.20},
		{"What should I do? Maybe ask around?", 0.70},
	}
	for _, tc := range cases {
		if got := Openness(tc.text); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Openness(%q) = %f, want %f", tc.text, got, tc.want)
		}
	}
}

func TestOpennessCapped(t *testing.T) {
	got := OpennessWithReplyHistory("Why not? Maybe someone is curious, anyone else wondering?", true)
	if got > 1.0 {
		t.Fatalf("openness exceeded cap: %f", got)
	}
}

func TestAuthorQualityTiers(t *testing.T) {
	whitelist := []string{"@TrustedOne"}
	blacklist := []string{"badactor"}

	if got := AuthorQuality("trustedone", whitelist, blacklist); got != 0.9 {
		t.Fatalf("whitelisted: %f", got)
	}
	if got := AuthorQuality("@BadActor", whitelist, blacklist); got != 0.0 {
		t.Fatalf("blacklisted: %f", got)
	}
	if got := AuthorQuality("stranger", whitelist, blacklist); got != 0.6 {
		t.Fatalf("unknown: %f", got)
	}
}

func TestAuthorQualityBlacklistWins(t *testing.T) {
	both := []string{"doubleagent"}
	if got := AuthorQuality("DoubleAgent", both, both); got != 0.0 {
		t.Fatalf("blacklist must take precedence, got %f", got)
	}
}

func TestLabelFromScore(t *testing.T) {
	thresholds := Thresholds{GreenMin: 0.72, YellowMin: 0.55}
	cases := []struct {
		total float64
		want  Label
	}{
		{0.90, LabelGreen},
		{0.72, LabelGreen},
		{0.719999, LabelYellow},
		{0.60, LabelYellow},
		{0.55, LabelYellow},
		{0.549999, LabelRed},
		{0.10, LabelRed},
	}
	for _, tc := range cases {
		if got := LabelFromScore(tc.total, thresholds); got != tc.want {
			t.Fatalf("LabelFromScore(%f) = %s, want %s", tc.total, got, tc.want)
		}
	}
}

func TestLabelMonotonic(t *testing.T) {
	thresholds := DefaultThresholds()
	rank := map[Label]int{LabelRed: 0, LabelYellow: 1, LabelGreen: 2}
	prev := LabelRed
	for total := 0.0; total <= 1.0; total += 0.001 {
		label := LabelFromScore(total, thresholds)
		if rank[label] < rank[prev] {
			t.Fatalf("label regressed at total=%f: %s after %s", total, label, prev)
		}
		prev = label
	}
}

func TestScoreCombinesWeights(t *testing.T) {
	post := model.Post{
		ID:              "p1",
		Text:            "Why is onboarding so hard for small teams?",
		AuthorHandle:    "founder",
		AuthorFollowers: 10000,
		Likes:           50,
		Replies:         10,
		Reshares:        5,
		Language:        "en",
	}
	taxonomy := map[string][]float32{"saas": {1, 0}}
	result := Score(post, []float32{1, 0}, taxonomy, DefaultWeights(), DefaultThresholds(), AuthorLists{}, 30)

	weights := DefaultWeights()
	want := weights.Velocity*result.Velocity +
		weights.Relevance*result.Relevance +
		weights.Openness*result.Openness +
		weights.AuthorQuality*result.AuthorQuality
	if math.Abs(result.Total-want) > 1e-9 {
		t.Fatalf("total %f does not match weighted components %f", result.Total, want)
	}
	if result.Label != LabelFromScore(result.Total, DefaultThresholds()) {
		t.Fatalf("label %s inconsistent with total %f", result.Label, result.Total)
	}
	if result.BestTopic != "saas" {
		t.Fatalf("unexpected best topic: %q", result.BestTopic)
	}
	if !result.GatePassed {
		t.Fatal("scored result should be marked gate-passed")
	}
}
