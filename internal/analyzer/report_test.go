package analyzer

import (
	"math"
	"testing"
	"time"

	"prospector/internal/generation"
	"prospector/internal/model"
	"prospector/internal/scoring"
)

func scored(label scoring.Label, topic string) scoring.Result {
	return scoring.Result{Label: label, BestTopic: topic, GatePassed: true}
}

func postAt(views int, postedAt time.Time) model.Post {
	return model.Post{Views: views, PostedAt: postedAt}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestTierCountsAndPercentages(t *testing.T) {
	now := time.Now()
	posts := []model.Post{postAt(0, now), postAt(0, now), postAt(0, now), postAt(0, now)}
	results := []scoring.Result{
		scored(scoring.LabelGreen, "a"),
		scored(scoring.LabelYellow, "a"),
		scored(scoring.LabelRed, "b"),
		{GatePassed: false, Label: scoring.LabelRed, GateReason: "not in english"},
	}

	report := Aggregate("r", posts, results, nil, now, 0)
	if report.Tiers.Green != 1 || report.Tiers.Yellow != 1 || report.Tiers.Red != 2 {
		t.Fatalf("tiers = %+v", report.Tiers)
	}
	approx(t, "GreenPct", report.Tiers.GreenPct, 25)
	approx(t, "RedPct", report.Tiers.RedPct, 50)
	if report.GatedOut != 1 {
		t.Fatalf("GatedOut = %d", report.GatedOut)
	}
	if report.Topics["a"] != 2 || report.Topics["b"] != 1 {
		t.Fatalf("topics = %v", report.Topics)
	}
}

func TestFreshnessSpanFlooredAt24h(t *testing.T) {
	now := time.Now()
	// all three posts share one timestamp: span would be zero
	posts := []model.Post{postAt(0, now), postAt(0, now), postAt(0, now)}

	report := Aggregate("r", posts, nil, nil, now, 0)
	approx(t, "PostsPerDay", report.Freshness.PostsPerDay, 3)
	approx(t, "RecentFraction", report.Freshness.RecentFraction, 1)
}

func TestFreshnessRecentFraction(t *testing.T) {
	now := time.Now()
	posts := []model.Post{
		postAt(0, now.Add(-1*time.Hour)),
		postAt(0, now.Add(-24*time.Hour)),
		postAt(0, now.Add(-96*time.Hour)),
		postAt(0, now.Add(-96*time.Hour)),
	}

	report := Aggregate("r", posts, nil, nil, now, 0)
	approx(t, "RecentFraction", report.Freshness.RecentFraction, 0.5)
	// span is 95h, so posts/day = 4 / (95/24)
	approx(t, "PostsPerDay", report.Freshness.PostsPerDay, 4/(95.0/24))
}

func TestViralityStats(t *testing.T) {
	now := time.Now()
	views := []int{100, 200, 300, 400, 500, 600, 700, 800, 900, 50000}
	posts := make([]model.Post, len(views))
	for i, v := range views {
		posts[i] = postAt(v, now)
	}

	report := Aggregate("r", posts, nil, nil, now, 10000)
	approx(t, "MeanViews", report.Virality.MeanViews, 5450)
	approx(t, "MedianViews", report.Virality.MedianViews, 550)
	// top decile of 10 posts is the single highest
	approx(t, "TopDecileViews", report.Virality.TopDecileViews, 50000)
	if report.Virality.ViralCount != 1 {
		t.Fatalf("ViralCount = %d", report.Virality.ViralCount)
	}
}

func TestViralityMedianOddCount(t *testing.T) {
	now := time.Now()
	posts := []model.Post{postAt(10, now), postAt(30, now), postAt(20, now)}

	report := Aggregate("r", posts, nil, nil, now, 0)
	approx(t, "MedianViews", report.Virality.MedianViews, 20)
}

func TestCostEfficiencyZeroGuards(t *testing.T) {
	now := time.Now()
	// no green posts and no spend: both ratios must be 0, not NaN/Inf
	report := Aggregate("r", nil, []scoring.Result{scored(scoring.LabelRed, "a")}, nil, now, 0)
	if report.Cost.PerGreenUSD != 0 || report.Cost.GreensPerDollar != 0 {
		t.Fatalf("cost ratios not guarded: %+v", report.Cost)
	}
}

func TestCostEfficiencyRatios(t *testing.T) {
	now := time.Now()
	results := []scoring.Result{scored(scoring.LabelGreen, "a"), scored(scoring.LabelGreen, "a")}
	gen := []generation.Result{
		{Outcome: generation.OutcomeSuccess, CostUSD: 0.03},
		{Outcome: generation.OutcomeSuccess, CostUSD: 0.01},
	}

	report := Aggregate("r", nil, results, gen, now, 0)
	approx(t, "TotalUSD", report.Cost.TotalUSD, 0.04)
	approx(t, "PerGreenUSD", report.Cost.PerGreenUSD, 0.02)
	approx(t, "GreensPerDollar", report.Cost.GreensPerDollar, 50)
}

func TestGenerationOutcomeCounts(t *testing.T) {
	now := time.Now()
	gen := []generation.Result{
		{Outcome: generation.OutcomeSuccess},
		{Outcome: generation.OutcomeSafetyBlocked},
		{Outcome: generation.OutcomeAllFiltered},
		{Outcome: generation.OutcomeProviderError},
	}

	report := Aggregate("r", nil, nil, gen, now, 0)
	g := report.Generation
	if g.Succeeded != 1 || g.Failed != 3 || g.SafetyBlocked != 1 || g.AllFiltered != 1 {
		t.Fatalf("generation counts = %+v", g)
	}
}

func TestRecommendationTiers(t *testing.T) {
	cases := []struct {
		greenPct float64
		fresh    float64
		want     string
	}{
		{20, 1.0, "Excellent"},
		{15, 1.0, "Excellent"},
		{10, 1.0, "Good"},
		{8, 1.0, "Good"},
		{6, 1.0, "Okay"},
		{5, 1.0, "Okay"},
		{2, 1.0, "Poor"},
		{20, 0.1, "Good"}, // stale set drops one tier
		{2, 0.1, "Poor"},  // already at the floor
	}
	for _, tc := range cases {
		rec := recommend(tc.greenPct, tc.fresh)
		if rec.Tier != tc.want {
			t.Fatalf("recommend(%v, %v) = %q, want %q", tc.greenPct, tc.fresh, rec.Tier, tc.want)
		}
		if rec.Reasoning == "" {
			t.Fatalf("recommend(%v, %v) has empty reasoning", tc.greenPct, tc.fresh)
		}
	}
}
