package scoring

import "math"

// velocitySensitivity controls how quickly the logistic saturates as the
// per-minute engagement rate grows.
const velocitySensitivity = 6.0

// Velocity scores how fast a post is accumulating engagement relative to its
// author's audience. Replies weigh heaviest as the strongest proof of
// interaction. Monotonic increasing in engagement, decreasing in age and in
// follower count.
func Velocity(likes, replies, reshares int, minutesSince float64, followers int) float64 {
	weighted := float64(likes) + 2.0*float64(replies) + 1.5*float64(reshares)
	rate := weighted / math.Max(1, minutesSince)

	// Floor tiny accounts at 100 followers so the normalizer never blows up.
	audience := math.Log10(math.Max(100, float64(followers)))

	return logistic(velocitySensitivity * rate / audience)
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
