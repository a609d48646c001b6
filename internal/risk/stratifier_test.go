package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardio-risk-engine/internal/domain"
)

// Exact boundary scores must land in the higher band.
func TestStratify_BoundaryOwnership(t *testing.T) {
	tests := []struct {
		score    float64
		category domain.RiskCategory
	}{
		{0, domain.VERY_LOW},
		{19.999, domain.VERY_LOW},
		{20, domain.LOW},
		{34.999, domain.LOW},
		{35, domain.MODERATE},
		{59.999, domain.MODERATE},
		{60, domain.HIGH},
		{79.999, domain.HIGH},
		{80, domain.VERY_HIGH},
		{100, domain.VERY_HIGH},
	}

	for _, tt := range tests {
		s := Stratify(tt.score)
		assert.Equal(t, tt.category, s.Category, "score %v", tt.score)
		assert.GreaterOrEqual(t, s.PercentThrough, 0.0, "score %v", tt.score)
		assert.LessOrEqual(t, s.PercentThrough, 100.0, "score %v", tt.score)
	}
}

func TestStratify_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, domain.VERY_LOW, Stratify(-5).Category)
	assert.Equal(t, domain.VERY_HIGH, Stratify(150).Category)
	assert.Equal(t, 0.0, Stratify(150).DistanceToNext)
}

func TestStratify_ProgressAndDistance(t *testing.T) {
	s := Stratify(10)
	assert.Equal(t, domain.VERY_LOW, s.Category)
	assert.InDelta(t, 50.0, s.PercentThrough, 1e-9)
	assert.InDelta(t, 10.0, s.DistanceToNext, 1e-9)

	s = Stratify(47.5)
	assert.Equal(t, domain.MODERATE, s.Category)
	assert.InDelta(t, 50.0, s.PercentThrough, 1e-9)
	assert.InDelta(t, 12.5, s.DistanceToNext, 1e-9)

	s = Stratify(90)
	assert.Equal(t, domain.VERY_HIGH, s.Category)
	assert.Equal(t, 0.0, s.DistanceToNext, "no band above very-high")
}

func TestStratify_UrgencyAndRecommendations(t *testing.T) {
	tests := []struct {
		score   float64
		urgency domain.UrgencyLevel
		action  domain.ActionPriority
	}{
		{10, domain.URGENCY_ROUTINE, domain.ACTION_MONITOR},
		{27, domain.URGENCY_ROUTINE, domain.ACTION_MONITOR},
		{45, domain.URGENCY_SOON, domain.ACTION_OPTIMIZE},
		{70, domain.URGENCY_URGENT, domain.ACTION_INTERVENE},
		{90, domain.URGENCY_CRITICAL, domain.ACTION_IMMEDIATE},
	}
	for _, tt := range tests {
		s := Stratify(tt.score)
		assert.Equal(t, tt.urgency, s.Urgency, "score %v", tt.score)
		assert.Equal(t, tt.action, s.ActionPriority, "score %v", tt.score)
		assert.NotEmpty(t, s.Recommendations, "score %v", tt.score)
	}
}

func TestCompareAcrossCategories(t *testing.T) {
	tests := []struct {
		name     string
		s1, s2   float64
		contains string
	}{
		{"two band jump up", 10, 70, "worsened significantly"},
		{"two band jump down", 70, 10, "improved significantly"},
		{"one band up", 25, 40, "Risk worsened"},
		{"one band down", 40, 25, "Risk improved"},
		{"within band up", 36, 39, "trending up"},
		{"within band down", 39, 36, "trending down"},
		{"within band stable", 36, 36.5, "stable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, CompareAcrossCategories(tt.s1, tt.s2), tt.contains)
		})
	}
}
