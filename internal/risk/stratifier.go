package risk

import (
	"fmt"

	"github.com/cardio-risk-engine/internal/domain"
)

// Population-level band boundaries. Bands are closed-open except the top
// band, which is closed on both ends: a score equal to a boundary belongs
// to the higher band.
const (
	veryLowUpperBound  = 20.0
	lowUpperBound      = 35.0
	moderateLowerBound = 35.0
	moderateUpperBound = 60.0
	highUpperBound     = 80.0
	topBound           = 100.0
)

// band holds the static attributes of one risk category.
type band struct {
	category        domain.RiskCategory
	lower, upper    float64
	urgency         domain.UrgencyLevel
	action          domain.ActionPriority
	recommendations []string
}

// bands partitions [0,100] contiguously, in ascending order.
var bands = []band{
	{
		category: domain.VERY_LOW, lower: 0, upper: veryLowUpperBound,
		urgency: domain.URGENCY_ROUTINE, action: domain.ACTION_MONITOR,
		recommendations: []string{
			"Maintain current lifestyle and activity level",
			"Routine annual checkup",
			"Re-assess risk in 2-3 years or after major health changes",
		},
	},
	{
		category: domain.LOW, lower: veryLowUpperBound, upper: lowUpperBound,
		urgency: domain.URGENCY_ROUTINE, action: domain.ACTION_MONITOR,
		recommendations: []string{
			"Maintain healthy diet and regular exercise",
			"Annual blood pressure and lipid screening",
			"Address modifiable factors such as smoking or weight",
		},
	},
	{
		category: domain.MODERATE, lower: moderateLowerBound, upper: moderateUpperBound,
		urgency: domain.URGENCY_SOON, action: domain.ACTION_OPTIMIZE,
		recommendations: []string{
			"Schedule a clinical review within the next three months",
			"Optimize blood pressure, lipids and glucose toward cohort targets",
			"Structured lifestyle program: diet, exercise, smoking cessation",
			"Consider preventive pharmacotherapy per clinical judgment",
		},
	},
	{
		category: domain.HIGH, lower: moderateUpperBound, upper: highUpperBound,
		urgency: domain.URGENCY_URGENT, action: domain.ACTION_INTERVENE,
		recommendations: []string{
			"Clinical evaluation within the next few weeks",
			"Aggressive risk factor modification under medical supervision",
			"Medication review for antihypertensive and lipid-lowering therapy",
			"Cardiology referral if symptoms are present",
		},
	},
	{
		category: domain.VERY_HIGH, lower: highUpperBound, upper: topBound,
		urgency: domain.URGENCY_CRITICAL, action: domain.ACTION_IMMEDIATE,
		recommendations: []string{
			"Prompt clinical evaluation - do not delay",
			"Immediate cardiology referral",
			"Comprehensive cardiac workup including stress testing",
			"Intensive medical management of all modifiable risk factors",
		},
	},
}

// Stratify maps a continuous 0-100 score into its risk band with
// progress-in-band, distance to the next boundary, urgency, action
// priority and the band's fixed recommendations. Scores outside [0,100]
// are clamped first; the aggregator re-validates its inputs independently.
func Stratify(score float64) domain.Stratification {
	score = clamp(score, 0, topBound)

	b := bands[len(bands)-1]
	for _, cand := range bands[:len(bands)-1] {
		if score < cand.upper {
			b = cand
			break
		}
	}

	width := b.upper - b.lower
	s := domain.Stratification{
		Category:        b.category,
		LowerBound:      b.lower,
		UpperBound:      b.upper,
		PercentThrough:  (score - b.lower) / width * 100,
		DistanceToNext:  b.upper - score,
		Urgency:         b.urgency,
		ActionPriority:  b.action,
		Recommendations: b.recommendations,
	}
	if b.category == domain.VERY_HIGH {
		// No next band above the top.
		s.DistanceToNext = 0
	}
	return s
}

// categoryRank orders the five bands for longitudinal comparison.
func categoryRank(c domain.RiskCategory) int {
	for i, b := range bands {
		if b.category == c {
			return i
		}
	}
	return -1
}

// CompareAcrossCategories classifies a longitudinal score pair into a
// human-readable transition narrative. Presentation logic layered on top
// of the pure classifier.
func CompareAcrossCategories(score1, score2 float64) string {
	from := Stratify(score1)
	to := Stratify(score2)
	delta := score2 - score1

	fromRank := categoryRank(from.Category)
	toRank := categoryRank(to.Category)

	switch {
	case toRank < fromRank:
		if fromRank-toRank >= 2 {
			return fmt.Sprintf("Risk improved significantly: moved from %s to %s (score %.1f to %.1f)",
				from.Category, to.Category, domain.RoundScore(score1), domain.RoundScore(score2))
		}
		return fmt.Sprintf("Risk improved: moved from %s to %s (score %.1f to %.1f)",
			from.Category, to.Category, domain.RoundScore(score1), domain.RoundScore(score2))
	case toRank > fromRank:
		if toRank-fromRank >= 2 {
			return fmt.Sprintf("Risk worsened significantly: moved from %s to %s (score %.1f to %.1f)",
				from.Category, to.Category, domain.RoundScore(score1), domain.RoundScore(score2))
		}
		return fmt.Sprintf("Risk worsened: moved from %s to %s (score %.1f to %.1f)",
			from.Category, to.Category, domain.RoundScore(score1), domain.RoundScore(score2))
	default:
		if delta <= -2 {
			return fmt.Sprintf("Risk trending down within the %s band (score %.1f to %.1f)",
				from.Category, domain.RoundScore(score1), domain.RoundScore(score2))
		}
		if delta >= 2 {
			return fmt.Sprintf("Risk trending up within the %s band (score %.1f to %.1f)",
				from.Category, domain.RoundScore(score1), domain.RoundScore(score2))
		}
		return fmt.Sprintf("Risk stable in the %s band (score %.1f to %.1f)",
			from.Category, domain.RoundScore(score1), domain.RoundScore(score2))
	}
}
