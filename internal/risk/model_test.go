package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-engine/internal/domain"
)

func assessRecord(t *testing.T, params ModelParameters, record *domain.PatientRecord) *ModelResult {
	t.Helper()
	m, err := NewModel(params)
	require.NoError(t, err)
	features, err := Normalize(record, &params)
	require.NoError(t, err)
	result, err := m.Assess(features)
	require.NoError(t, err)
	return result
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, sigmoid(0))
	assert.InDelta(t, 0.7310585786, sigmoid(1), 1e-9)
	assert.InDelta(t, 1.0, sigmoid(1000), 1e-12, "clamped, never overflows")
	assert.InDelta(t, 0.0, sigmoid(-1000), 1e-12)
	assert.False(t, math.IsNaN(sigmoid(math.MaxFloat64)))
	assert.False(t, math.IsNaN(sigmoid(-math.MaxFloat64)))
}

// The signed contributions plus the intercept reconstruct the linear score.
func TestModel_ContributionsReconstructZ(t *testing.T) {
	for _, params := range DefaultModelSet() {
		record := baselineRecord()
		record.Smoking = domain.SMOKING_CURRENT
		record.PriorMI = true
		result := assessRecord(t, params, record)

		sum := params.Intercept
		for _, c := range result.Contributions {
			sum += c.Contribution
		}
		assert.InDelta(t, result.ZValue, sum, 1e-9, params.ModelID)
	}
}

func TestModel_ContributionsCoverSchema(t *testing.T) {
	result := assessRecord(t, northAmericanParams(), baselineRecord())
	require.Len(t, result.Contributions, len(FeatureSchema()))

	seen := make(map[string]bool, len(result.Contributions))
	for _, c := range result.Contributions {
		seen[c.Feature] = true
		switch {
		case c.Contribution > 0:
			assert.Equal(t, domain.DIRECTION_INCREASES, c.Direction, c.Feature)
		case c.Contribution < 0:
			assert.Equal(t, domain.DIRECTION_DECREASES, c.Direction, c.Feature)
		default:
			assert.Equal(t, domain.DIRECTION_NEUTRAL, c.Direction, c.Feature)
		}
	}
	for _, spec := range FeatureSchema() {
		assert.True(t, seen[spec.Name], "missing contribution for %s", spec.Name)
	}
}

func TestModel_ContributionsSortedByMagnitude(t *testing.T) {
	result := assessRecord(t, northAmericanParams(), baselineRecord())
	for i := 1; i < len(result.Contributions); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(result.Contributions[i-1].Contribution),
			math.Abs(result.Contributions[i].Contribution))
	}
}

func TestModel_ConfidenceIntervalClamped(t *testing.T) {
	tests := []struct {
		name   string
		record *domain.PatientRecord
	}{
		{"extreme high risk", func() *domain.PatientRecord {
			r := baselineRecord()
			r.Age = 95
			r.SystolicBP = 230
			r.LDLCholesterol = 320
			r.Smoking = domain.SMOKING_CURRENT
			r.Diabetes = domain.DIABETIC
			r.PriorMI = true
			r.PriorStroke = true
			return r
		}()},
		{"extreme low risk", func() *domain.PatientRecord {
			r := baselineRecord()
			r.Age = 20
			r.Sex = domain.FEMALE
			r.SystolicBP = 100
			r.LDLCholesterol = 60
			r.HDLCholesterol = 80
			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := assessRecord(t, northAmericanParams(), tt.record)
			ci := result.ConfidenceInterval
			assert.GreaterOrEqual(t, ci.LowerPct, 0.0)
			assert.LessOrEqual(t, ci.UpperPct, 100.0)
			assert.LessOrEqual(t, ci.LowerPct, ci.UpperPct)
			assert.GreaterOrEqual(t, result.RiskScore, ci.LowerPct)
			assert.LessOrEqual(t, result.RiskScore, ci.UpperPct)
		})
	}
}

func TestModel_ConfidenceModeratePenalty(t *testing.T) {
	m, err := NewModel(northAmericanParams())
	require.NoError(t, err)

	// Same distance from p=0.5, one side inside the moderate band.
	inBand := m.confidence(0.45, 45)
	outOfBand := m.confidence(0.55, 65)
	assert.InDelta(t, moderateConfidencePenalty, outOfBand-inBand, 1e-9)

	for _, p := range []float64{0.01, 0.3, 0.5, 0.7, 0.99} {
		c := m.confidence(p, p*100)
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 100.0)
	}
}

// A degenerate all-zero model makes z exactly zero: percentages stay zero
// instead of dividing by zero, and every direction is neutral.
func TestModel_ZeroLinearScore(t *testing.T) {
	params := northAmericanParams()
	coeffs := make(map[string]float64, len(params.Coefficients))
	for k := range params.Coefficients {
		coeffs[k] = 0
	}
	params.Coefficients = coeffs
	params.Intercept = 0

	result := assessRecord(t, params, baselineRecord())
	assert.Zero(t, result.ZValue)
	assert.Equal(t, 0.5, result.Probability)
	for _, c := range result.Contributions {
		assert.Zero(t, c.Percentage)
		assert.Equal(t, domain.DIRECTION_NEUTRAL, c.Direction)
	}
}

func TestModel_RejectsWrongFeatureVectorLength(t *testing.T) {
	m, err := NewModel(northAmericanParams())
	require.NoError(t, err)

	_, err = m.Assess(&NormalizedFeatures{Values: []float64{1, 2, 3}})
	require.Error(t, err)
	assert.True(t, domain.IsComputationError(err))
}

func TestModelParameters_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		for _, params := range DefaultModelSet() {
			assert.NoError(t, params.Validate(), params.ModelID)
		}
	})

	t.Run("rejects AUC at or below 0.5", func(t *testing.T) {
		params := northAmericanParams()
		params.AUC = 0.5
		assert.Error(t, params.Validate())
	})

	t.Run("rejects non-positive std", func(t *testing.T) {
		params := northAmericanParams()
		norm := make(map[string]NormStats, len(params.Norm))
		for k, v := range params.Norm {
			norm[k] = v
		}
		ns := norm[FeatureAge]
		ns.Std = 0
		norm[FeatureAge] = ns
		params.Norm = norm
		assert.Error(t, params.Validate())
	})

	t.Run("rejects empty training range", func(t *testing.T) {
		params := northAmericanParams()
		norm := make(map[string]NormStats, len(params.Norm))
		for k, v := range params.Norm {
			norm[k] = v
		}
		norm[FeatureHDL] = NormStats{Mean: 50, Std: 13, Min: 120, Max: 15}
		params.Norm = norm
		assert.Error(t, params.Validate())
	})
}
