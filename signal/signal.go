package signal

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidFeatureInput indicates malformed raw counters from the caller.
// It is a caller bug, not a transient condition, so it fails fast.
var ErrInvalidFeatureInput = errors.New("signal: invalid feature input")

// Engagement computes a normalized engagement score in [0,1] from a
// submission's raw counters. Pure and deterministic: age is measured against
// the caller-supplied now.
//
// The base term is engagement velocity, min(1, (score+comments)/(100*ageHours)),
// scaled by the upvote ratio through (0.5 + 0.5*ratio) so low-consensus posts
// are discounted. Monotonic non-decreasing in score and comment count.
func Engagement(score, comments int, ratio float64, createdAt, now time.Time) (float64, error) {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, ErrInvalidFeatureInput
	}
	if createdAt.IsZero() || now.Before(createdAt) {
		return 0, ErrInvalidFeatureInput
	}

	// Negative counters clamp to zero rather than propagating as errors.
	if score < 0 {
		score = 0
	}
	if comments < 0 {
		comments = 0
	}
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}

	ageHours := now.Sub(createdAt).Hours()
	if ageHours < 1 {
		ageHours = 1
	}

	velocity := float64(score+comments) / (100.0 * ageHours)
	if velocity > 1 {
		velocity = 1
	}

	return velocity * (0.5 + 0.5*ratio), nil
}
