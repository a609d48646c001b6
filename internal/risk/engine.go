package risk

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/cardio-risk-engine/internal/domain"
)

// EngineVersion identifies the scoring engine build in assessment metadata.
const EngineVersion = "1.4.0"

// weightSumTolerance bounds how far the configured blend weights may drift
// from summing to 1 before the configuration is rejected.
const weightSumTolerance = 1e-6

// Engine is the composite risk aggregator: it runs several independently
// parametrized model instances over the same patient and blends their
// outputs into one score plus a ranked risk-factor explanation. All
// configuration is validated and frozen at construction; Assess is pure
// and safe for unbounded concurrent use.
type Engine struct {
	logger   *logrus.Logger
	models   []*Model
	cohorts  *CohortTable
	metadata domain.AssessmentMetadata
}

// NewEngine validates the parameter sets and cohort table and returns a
// ready engine. Any inconsistency is a ConfigurationError and the caller
// must not begin serving.
func NewEngine(paramSets []ModelParameters, cohorts *CohortTable, logger *logrus.Logger) (*Engine, error) {
	if len(paramSets) == 0 {
		return nil, domain.NewConfigurationError("engine", "at least one model parameter set is required")
	}
	if cohorts == nil {
		return nil, domain.NewConfigurationError("engine", "cohort threshold table is required")
	}
	if err := cohorts.Validate(); err != nil {
		return nil, err
	}

	models := make([]*Model, 0, len(paramSets))
	infos := make([]domain.ModelInfo, 0, len(paramSets))
	weightSum := 0.0
	for _, params := range paramSets {
		m, err := NewModel(params)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
		infos = append(infos, params.Info())
		weightSum += params.Weight
	}
	if math.Abs(weightSum-1.0) > weightSumTolerance {
		return nil, domain.NewConfigurationError("engine",
			fmt.Sprintf("blend weights sum to %v, expected 1", weightSum))
	}

	logger.WithFields(logrus.Fields{
		"models":       len(models),
		"cohort_cells": len(cohorts.Cells()),
		"version":      EngineVersion,
	}).Info("Risk engine initialized")

	return &Engine{
		logger:  logger,
		models:  models,
		cohorts: cohorts,
		metadata: domain.AssessmentMetadata{
			EngineVersion: EngineVersion,
			Models:        infos,
		},
	}, nil
}

// Metadata returns the engine and model version information.
func (e *Engine) Metadata() domain.AssessmentMetadata {
	return e.metadata
}

// Assess converts a patient record into a complete risk assessment. The
// record is validated first; a ValidationError names the offending field.
// A ComputationError indicates an engine defect, never bad input. The
// result is deterministic for identical input; envelope fields
// (AssessmentID, CreatedAt) are left for the host to assign.
func (e *Engine) Assess(record *domain.PatientRecord) (*domain.RiskAssessment, error) {
	if record == nil {
		return nil, domain.NewValidationError("record", "patient record is required", nil)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	results := make([]*ModelResult, len(e.models))
	for i, m := range e.models {
		params := m.Params()
		features, err := Normalize(record, &params)
		if err != nil {
			return nil, fmt.Errorf("normalizing for model %s: %w", params.ModelID, err)
		}
		result, err := m.Assess(features)
		if err != nil {
			return nil, fmt.Errorf("assessing with model %s: %w", params.ModelID, err)
		}
		results[i] = result
	}

	weights := blendWeights(e.models, record.PopulationGroup)
	probability, score, confidence := combineResults(results, weights)

	assessment := &domain.RiskAssessment{
		Probability:        probability,
		RiskScore:          score,
		DisplayScore:       domain.RoundScore(score),
		Confidence:         confidence,
		ConfidenceInterval: e.combinedInterval(probability),
		Stratification:     Stratify(score),
		PerModelScores:     perModelScores(e.models, results, weights),
		TopRiskFactors:     topRiskFactors(results),
		Cohort:             e.cohortComparison(record, score),
		Metadata:           e.metadata,
	}

	e.logger.WithFields(logrus.Fields{
		"risk_score": assessment.DisplayScore,
		"category":   assessment.Stratification.Category,
		"confidence": assessment.Confidence,
		"models":     len(results),
	}).Debug("Risk assessment completed")

	return assessment, nil
}

// combinedInterval derives the 95% interval for the blended probability
// using the weight-averaged dispersion constant.
func (e *Engine) combinedInterval(p float64) domain.ConfidenceInterval {
	k := 0.0
	for _, m := range e.models {
		k += m.Params().DispersionK
	}
	k /= float64(len(e.models))

	se := math.Sqrt(p * (1 - p) * k)
	return domain.ConfidenceInterval{
		LowerPct: clamp(p-zCI95*se, 0, 1) * 100,
		UpperPct: clamp(p+zCI95*se, 0, 1) * 100,
	}
}

// cohortComparison builds the cohort-relative view, or nil when the
// patient's age is below the covered range.
func (e *Engine) cohortComparison(record *domain.PatientRecord, score float64) *domain.CohortComparison {
	cell, ok := e.cohorts.Lookup(record.Age, record.Sex)
	if !ok {
		return nil
	}

	descriptor, deviation := cell.CompareToCohortAverage(score)
	return &domain.CohortComparison{
		Cohort:              cell.Name(),
		CohortMean:          cell.PopulationMean,
		DeviationPct:        math.Round(deviation*10) / 10,
		Descriptor:          descriptor,
		AgeAdjustedCategory: cell.CategorizeByAge(score),
		BiologicalAge:       EstimateBiologicalAge(record.Age, score),
		Guidance:            cell.GuidanceFor(score),
		Targets:             cell.Targets,
		Screening:           cell.Screening,
		Projections:         cell.ProjectFutureRisk(record.Age, score),
	}
}
