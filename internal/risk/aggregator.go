package risk

import (
	"math"
	"sort"

	"github.com/cardio-risk-engine/internal/domain"
)

// populationWeightBonus is the modest upward adjustment applied to a model
// variant whose calibration target matches the patient's declared
// population group. Weights are renormalized to sum to 1 afterwards.
const populationWeightBonus = 0.05

// maxTopRiskFactors caps the aggregated explanation list.
const maxTopRiskFactors = 10

// Severity thresholds on the absolute percentage share of the linear score.
const (
	severityHighPct     = 20.0
	severityModeratePct = 10.0
)

// blendWeights returns the effective per-model weights for a patient,
// applying the population match bonus and renormalizing.
func blendWeights(models []*Model, population domain.PopulationGroup) []float64 {
	weights := make([]float64, len(models))
	total := 0.0
	for i, m := range models {
		w := m.Params().Weight
		if m.Params().Population == string(population) {
			w += populationWeightBonus
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// combineResults blends constituent model results into one probability.
// Constituent scores and the combined score are independently re-clamped
// into [0,100]; the aggregator does not trust upstream clamping.
func combineResults(results []*ModelResult, weights []float64) (combinedProbability, combinedScore, confidence float64) {
	for i, r := range results {
		p := clamp(r.Probability, 0, 1)
		combinedProbability += weights[i] * p
		confidence += weights[i] * clamp(r.Confidence, 0, 100)
	}
	combinedProbability = clamp(combinedProbability, 0, 1)
	combinedScore = clamp(combinedProbability*100, 0, 100)
	return combinedProbability, combinedScore, confidence
}

// severityFor grades a factor by its absolute percentage share.
func severityFor(percentage float64) domain.FactorSeverity {
	abs := math.Abs(percentage)
	switch {
	case abs > severityHighPct:
		return domain.SEVERITY_HIGH
	case abs > severityModeratePct:
		return domain.SEVERITY_MODERATE
	default:
		return domain.SEVERITY_LOW
	}
}

// topRiskFactors takes the union of the strongest per-feature contributions
// across all constituent models, deduplicated by feature name (keeping the
// strongest), capped at maxTopRiskFactors.
func topRiskFactors(results []*ModelResult) []domain.RiskFactor {
	strongest := make(map[string]domain.FeatureContribution)
	for _, r := range results {
		for _, c := range r.Contributions {
			best, seen := strongest[c.Feature]
			if !seen || math.Abs(c.Contribution) > math.Abs(best.Contribution) {
				strongest[c.Feature] = c
			}
		}
	}

	factors := make([]domain.RiskFactor, 0, len(strongest))
	for _, c := range strongest {
		if math.Abs(c.Contribution) < 1e-12 {
			continue
		}
		factors = append(factors, domain.RiskFactor{
			Feature:      c.Feature,
			Label:        c.Label,
			Contribution: c.Contribution,
			Percentage:   c.Percentage,
			Severity:     severityFor(c.Percentage),
			Direction:    c.Direction,
		})
	}

	sort.SliceStable(factors, func(a, b int) bool {
		if math.Abs(factors[a].Contribution) != math.Abs(factors[b].Contribution) {
			return math.Abs(factors[a].Contribution) > math.Abs(factors[b].Contribution)
		}
		return factors[a].Feature < factors[b].Feature
	})

	if len(factors) == 0 {
		// Every contribution was zero; keep the first schema feature as a
		// neutral placeholder so the explanation list is never empty.
		spec := FeatureSchema()[0]
		factors = append(factors, domain.RiskFactor{
			Feature:   spec.Name,
			Label:     spec.Label,
			Severity:  domain.SEVERITY_LOW,
			Direction: domain.DIRECTION_NEUTRAL,
		})
	}
	if len(factors) > maxTopRiskFactors {
		factors = factors[:maxTopRiskFactors]
	}
	return factors
}

// perModelScores converts constituent results into the published form,
// re-clamping each score.
func perModelScores(models []*Model, results []*ModelResult, weights []float64) []domain.ModelScore {
	scores := make([]domain.ModelScore, len(results))
	for i, r := range results {
		p := models[i].Params()
		scores[i] = domain.ModelScore{
			ModelID:     p.ModelID,
			Name:        p.Name,
			Population:  p.Population,
			Probability: clamp(r.Probability, 0, 1),
			RiskScore:   clamp(r.RiskScore, 0, 100),
			Weight:      weights[i],
			Confidence:  clamp(r.Confidence, 0, 100),
		}
	}
	return scores
}
