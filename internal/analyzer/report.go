package analyzer

import (
	"fmt"
	"sort"
	"time"

	"prospector/internal/generation"
	"prospector/internal/model"
	"prospector/internal/scoring"
)

// defaultViralViewFloor is the view count above which a post counts as
// viral in the report.
const defaultViralViewFloor = 10000

// freshnessWindow bounds the "recent" fraction of the report.
const freshnessWindow = 48 * time.Hour

// staleDowngradeFraction is the recent-post fraction below which the
// recommendation tier drops one step.
const staleDowngradeFraction = 0.25

// Tiers are the label counts and their percentages over all fetched posts.
type Tiers struct {
	Green     int     `json:"green"`
	Yellow    int     `json:"yellow"`
	Red       int     `json:"red"`
	GreenPct  float64 `json:"green_pct"`
	YellowPct float64 `json:"yellow_pct"`
	RedPct    float64 `json:"red_pct"`
}

// Freshness describes how recent the candidate set is. PostsPerDay is
// normalized by the observed time span, floored at 24h so a single-timestamp
// batch does not divide by zero.
type Freshness struct {
	RecentFraction float64 `json:"recent_fraction"`
	PostsPerDay    float64 `json:"posts_per_day"`
}

// Virality summarizes the view-count distribution.
type Virality struct {
	MeanViews       float64 `json:"mean_views"`
	MedianViews     float64 `json:"median_views"`
	TopDecileViews  float64 `json:"top_decile_mean_views"`
	ViralCount      int     `json:"viral_count"`
	ViralViewsFloor int     `json:"viral_views_floor"`
}

// Cost relates spend to green posts found. Divisions guard zero
// denominators by reporting 0.
type Cost struct {
	TotalUSD        float64 `json:"total_usd"`
	PerGreenUSD     float64 `json:"per_green_usd"`
	GreensPerDollar float64 `json:"greens_per_dollar"`
}

// Generation counts per-post outcomes from the generation engine.
type Generation struct {
	Succeeded     int `json:"succeeded"`
	Failed        int `json:"failed"`
	SafetyBlocked int `json:"safety_blocked"`
	AllFiltered   int `json:"all_filtered"`
}

// Recommendation is the deterministic verdict on the search term.
type Recommendation struct {
	Tier      string `json:"tier"`
	Reasoning string `json:"reasoning"`
}

// Report is the aggregate produced by a completed run.
type Report struct {
	RunID          string         `json:"run_id"`
	Posts          int            `json:"posts"`
	GatedOut       int            `json:"gated_out"`
	Tiers          Tiers          `json:"tiers"`
	Freshness      Freshness      `json:"freshness"`
	Virality       Virality       `json:"virality"`
	Topics         map[string]int `json:"topics"`
	Cost           Cost           `json:"cost"`
	Generation     Generation     `json:"generation"`
	Recommendation Recommendation `json:"recommendation"`
}

// Aggregate computes the run report from the per-post outcomes. Pure; no
// I/O, deterministic for a given now.
func Aggregate(runID string, posts []model.Post, results []scoring.Result,
	genResults []generation.Result, now time.Time, viralViewFloor int) Report {

	report := Report{
		RunID:  runID,
		Posts:  len(posts),
		Topics: map[string]int{},
	}
	if viralViewFloor <= 0 {
		viralViewFloor = defaultViralViewFloor
	}
	report.Virality.ViralViewsFloor = viralViewFloor

	for _, result := range results {
		if !result.GatePassed {
			report.GatedOut++
			report.Tiers.Red++
			continue
		}
		switch result.Label {
		case scoring.LabelGreen:
			report.Tiers.Green++
		case scoring.LabelYellow:
			report.Tiers.Yellow++
		default:
			report.Tiers.Red++
		}
		if result.BestTopic != "" {
			report.Topics[result.BestTopic]++
		}
	}
	if n := len(results); n > 0 {
		report.Tiers.GreenPct = 100 * float64(report.Tiers.Green) / float64(n)
		report.Tiers.YellowPct = 100 * float64(report.Tiers.Yellow) / float64(n)
		report.Tiers.RedPct = 100 * float64(report.Tiers.Red) / float64(n)
	}

	report.Freshness = freshness(posts, now)
	report.Virality = virality(posts, viralViewFloor)

	for _, r := range genResults {
		report.Cost.TotalUSD += r.CostUSD
		switch r.Outcome {
		case generation.OutcomeSuccess:
			report.Generation.Succeeded++
		case generation.OutcomeSafetyBlocked:
			report.Generation.Failed++
			report.Generation.SafetyBlocked++
		case generation.OutcomeAllFiltered:
			report.Generation.Failed++
			report.Generation.AllFiltered++
		default:
			report.Generation.Failed++
		}
	}
	if report.Tiers.Green > 0 {
		report.Cost.PerGreenUSD = report.Cost.TotalUSD / float64(report.Tiers.Green)
	}
	if report.Cost.TotalUSD > 0 {
		report.Cost.GreensPerDollar = float64(report.Tiers.Green) / report.Cost.TotalUSD
	}

	report.Recommendation = recommend(report.Tiers.GreenPct, report.Freshness.RecentFraction)
	return report
}

func freshness(posts []model.Post, now time.Time) Freshness {
	if len(posts) == 0 {
		return Freshness{}
	}
	recent := 0
	oldest, newest := posts[0].PostedAt, posts[0].PostedAt
	for _, post := range posts {
		if now.Sub(post.PostedAt) <= freshnessWindow {
			recent++
		}
		if post.PostedAt.Before(oldest) {
			oldest = post.PostedAt
		}
		if post.PostedAt.After(newest) {
			newest = post.PostedAt
		}
	}
	span := newest.Sub(oldest)
	if span < 24*time.Hour {
		span = 24 * time.Hour
	}
	return Freshness{
		RecentFraction: float64(recent) / float64(len(posts)),
		PostsPerDay:    float64(len(posts)) / (span.Hours() / 24),
	}
}

func virality(posts []model.Post, viralViewFloor int) Virality {
	v := Virality{ViralViewsFloor: viralViewFloor}
	if len(posts) == 0 {
		return v
	}
	views := make([]int, len(posts))
	total := 0
	for i, post := range posts {
		views[i] = post.Views
		total += post.Views
		if post.Views > viralViewFloor {
			v.ViralCount++
		}
	}
	sort.Ints(views)

	v.MeanViews = float64(total) / float64(len(views))
	mid := len(views) / 2
	if len(views)%2 == 1 {
		v.MedianViews = float64(views[mid])
	} else {
		v.MedianViews = float64(views[mid-1]+views[mid]) / 2
	}

	decile := len(views) / 10
	if decile == 0 {
		decile = 1
	}
	top := views[len(views)-decile:]
	sum := 0
	for _, view := range top {
		sum += view
	}
	v.TopDecileViews = float64(sum) / float64(len(top))
	return v
}

// recommend maps green percentage to a tier, downgrading one step when the
// candidate set is mostly stale.
func recommend(greenPct, recentFraction float64) Recommendation {
	tiers := []string{"Poor", "Okay", "Good", "Excellent"}
	idx := 0
	switch {
	case greenPct >= 15:
		idx = 3
	case greenPct >= 8:
		idx = 2
	case greenPct >= 5:
		idx = 1
	}

	stale := recentFraction < staleDowngradeFraction
	if stale && idx > 0 {
		idx--
	}

	reasoning := fmt.Sprintf("%.1f%% of posts scored green.", greenPct)
	switch tiers[idx] {
	case "Excellent":
		reasoning += " This term surfaces a strong stream of engageable conversations."
	case "Good":
		reasoning += " This term reliably surfaces engageable conversations."
	case "Okay":
		reasoning += " This term surfaces some engageable conversations; consider narrowing it."
	default:
		reasoning += " This term rarely surfaces engageable conversations; consider replacing it."
	}
	if stale {
		reasoning += fmt.Sprintf(" Only %.0f%% of posts are from the last 48 hours, so the tier was lowered.", 100*recentFraction)
	}

	return Recommendation{Tier: tiers[idx], Reasoning: reasoning}
}
