package risk

import (
	"math"
	"sort"

	"github.com/cardio-risk-engine/internal/domain"
)

// sigmoid clamp range; e^500 overflows float64 headroom well before this,
// so the probability saturates cleanly at the extremes.
const (
	sigmoidClampLo = -500.0
	sigmoidClampHi = 500.0
)

// zCI95 is the two-sided 95% normal quantile.
const zCI95 = 1.96

// moderateConfidencePenalty is subtracted from model confidence when the
// score lands in the moderate band, where misclassification is known to be
// higher.
const moderateConfidencePenalty = 7.0

// Model evaluates a calibrated probability, confidence interval and
// per-feature contributions from normalized features. Immutable after
// construction; safe for concurrent use.
type Model struct {
	params ModelParameters
}

// NewModel validates the parameter set and returns an evaluator.
func NewModel(params ModelParameters) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: params}, nil
}

// Params returns the model's immutable parameter set.
func (m *Model) Params() ModelParameters {
	return m.params
}

// ModelResult is the output of a single constituent model evaluation.
type ModelResult struct {
	ModelID            string
	ZValue             float64
	Probability        float64
	RiskScore          float64
	Confidence         float64
	ConfidenceInterval domain.ConfidenceInterval
	Contributions      []domain.FeatureContribution
}

// sigmoid is the numerically stable logistic function: z is clamped to
// [-500, 500] before exponentiation to avoid overflow.
func sigmoid(z float64) float64 {
	z = clamp(z, sigmoidClampLo, sigmoidClampHi)
	return 1.0 / (1.0 + math.Exp(-z))
}

// Assess evaluates the linear-logistic model over the fixed feature schema.
// The signed sum of the returned contributions reconstructs the pre-sigmoid
// linear score.
func (m *Model) Assess(features *NormalizedFeatures) (*ModelResult, error) {
	schema := FeatureSchema()
	if len(features.Values) != len(schema) {
		return nil, domain.NewComputationError("assess",
			"feature vector length does not match schema", float64(len(features.Values)))
	}

	z := m.params.Intercept
	contributions := make([]domain.FeatureContribution, 0, len(schema))
	for i, spec := range schema {
		c := m.params.Coefficients[spec.Name] * features.Values[i]
		z += c
		contributions = append(contributions, domain.FeatureContribution{
			Feature:      spec.Name,
			Label:        spec.Label,
			Contribution: c,
		})
	}

	if math.IsNaN(z) || math.IsInf(z, 0) {
		return nil, domain.NewComputationError("assess", "non-finite linear score", z)
	}

	p := sigmoid(z)
	if math.IsNaN(p) {
		return nil, domain.NewComputationError("assess", "non-finite probability", p)
	}

	for i := range contributions {
		if z != 0 {
			contributions[i].Percentage = contributions[i].Contribution / z * 100
		}
		switch {
		case contributions[i].Contribution > 0:
			contributions[i].Direction = domain.DIRECTION_INCREASES
		case contributions[i].Contribution < 0:
			contributions[i].Direction = domain.DIRECTION_DECREASES
		default:
			contributions[i].Direction = domain.DIRECTION_NEUTRAL
		}
	}
	sort.SliceStable(contributions, func(a, b int) bool {
		return math.Abs(contributions[a].Contribution) > math.Abs(contributions[b].Contribution)
	})

	score := p * 100

	return &ModelResult{
		ModelID:            m.params.ModelID,
		ZValue:             z,
		Probability:        p,
		RiskScore:          score,
		Confidence:         m.confidence(p, score),
		ConfidenceInterval: m.confidenceInterval(p),
		Contributions:      contributions,
	}, nil
}

// confidenceInterval computes the 95% interval from the binomial-variance
// approximation, each bound clamped into [0,100]%.
func (m *Model) confidenceInterval(p float64) domain.ConfidenceInterval {
	se := math.Sqrt(p * (1 - p) * m.params.DispersionK)
	return domain.ConfidenceInterval{
		LowerPct: clamp(p-zCI95*se, 0, 1) * 100,
		UpperPct: clamp(p+zCI95*se, 0, 1) * 100,
	}
}

// confidence is the model's self-reported confidence, distinct from the
// confidence interval: AUC-based, adjusted up to +5 points the farther the
// probability is from 0.5, with a fixed penalty in the moderate band.
func (m *Model) confidence(p, score float64) float64 {
	conf := m.params.AUC*100 + math.Abs(p-0.5)*10
	if score >= moderateLowerBound && score < moderateUpperBound {
		conf -= moderateConfidencePenalty
	}
	return clamp(conf, 0, 100)
}
