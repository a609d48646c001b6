package domain

import (
	"math"
	"time"
)

// RiskCategory is one of the five ordered risk bands partitioning [0,100].
type RiskCategory string

const (
	VERY_LOW  RiskCategory = "very-low"
	LOW       RiskCategory = "low"
	MODERATE  RiskCategory = "moderate"
	HIGH      RiskCategory = "high"
	VERY_HIGH RiskCategory = "very-high"
)

// IsValid reports whether the category is one of the five bands.
func (c RiskCategory) IsValid() bool {
	switch c {
	case VERY_LOW, LOW, MODERATE, HIGH, VERY_HIGH:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category.
func (c RiskCategory) String() string {
	return string(c)
}

// UrgencyLevel expresses how quickly the patient should be seen.
type UrgencyLevel string

const (
	URGENCY_ROUTINE  UrgencyLevel = "routine"
	URGENCY_SOON     UrgencyLevel = "soon"
	URGENCY_URGENT   UrgencyLevel = "urgent"
	URGENCY_CRITICAL UrgencyLevel = "critical"
)

// ActionPriority expresses the clinical response class for a band.
type ActionPriority string

const (
	ACTION_MONITOR   ActionPriority = "monitor"
	ACTION_OPTIMIZE  ActionPriority = "optimize"
	ACTION_INTERVENE ActionPriority = "intervene"
	ACTION_IMMEDIATE ActionPriority = "immediate"
)

// ContributionDirection labels the sign of a feature's effect on risk.
type ContributionDirection string

const (
	DIRECTION_INCREASES ContributionDirection = "increases"
	DIRECTION_DECREASES ContributionDirection = "decreases"
	DIRECTION_NEUTRAL   ContributionDirection = "neutral"
)

// FactorSeverity grades a risk factor by its absolute percentage share of
// the linear score: High above 20%, Moderate above 10%, Low otherwise.
type FactorSeverity string

const (
	SEVERITY_HIGH     FactorSeverity = "High"
	SEVERITY_MODERATE FactorSeverity = "Moderate"
	SEVERITY_LOW      FactorSeverity = "Low"
)

// ConfidenceInterval is the symmetric 95% bound around the point estimate,
// expressed in percent and clamped to [0,100].
type ConfidenceInterval struct {
	LowerPct float64 `json:"lower_pct"`
	UpperPct float64 `json:"upper_pct"`
}

// FeatureContribution is the signed portion of a model's pre-sigmoid score
// attributable to one input feature.
type FeatureContribution struct {
	Feature      string                `json:"feature"`
	Label        string                `json:"label"`
	Contribution float64               `json:"contribution"`
	Percentage   float64               `json:"percentage"`
	Direction    ContributionDirection `json:"direction"`
}

// ModelScore is one constituent model's output within the composite.
type ModelScore struct {
	ModelID     string  `json:"model_id"`
	Name        string  `json:"name"`
	Population  string  `json:"population"`
	Probability float64 `json:"probability"`
	RiskScore   float64 `json:"risk_score"`
	Weight      float64 `json:"weight"`
	Confidence  float64 `json:"confidence"`
}

// RiskFactor is an aggregated, ranked explanation entry drawn from the
// strongest per-feature contributions across all constituent models.
type RiskFactor struct {
	Feature      string                `json:"feature"`
	Label        string                `json:"label"`
	Contribution float64               `json:"contribution"`
	Percentage   float64               `json:"percentage"`
	Severity     FactorSeverity        `json:"severity"`
	Direction    ContributionDirection `json:"direction"`
}

// Stratification describes where a score sits inside the five-band
// partition of [0,100].
type Stratification struct {
	Category         RiskCategory   `json:"category"`
	LowerBound       float64        `json:"lower_bound"`
	UpperBound       float64        `json:"upper_bound"`
	PercentThrough   float64        `json:"percent_through_band"`
	DistanceToNext   float64        `json:"distance_to_next_band"`
	Urgency          UrgencyLevel   `json:"urgency"`
	ActionPriority   ActionPriority `json:"action_priority"`
	Recommendations  []string       `json:"recommendations"`
}

// BiomarkerTargets are the cohort-specific treatment targets.
type BiomarkerTargets struct {
	SystolicBPMax    float64 `json:"systolic_bp_max"`
	DiastolicBPMax   float64 `json:"diastolic_bp_max"`
	TotalCholMax     float64 `json:"total_cholesterol_max"`
	LDLMax           float64 `json:"ldl_max"`
	HDLMin           float64 `json:"hdl_min"`
	TriglyceridesMax float64 `json:"triglycerides_max"`
	FastingGlucoseMax float64 `json:"fasting_glucose_max"`
	BMIMax           float64 `json:"bmi_max"`
}

// ScreeningCadence gives recommended screening intervals in months.
type ScreeningCadence struct {
	CheckupMonths    int `json:"checkup_months"`
	LipidPanelMonths int `json:"lipid_panel_months"`
	StressTestMonths int `json:"stress_test_months"`
}

// ProjectedRisk is one sample of the linear future-risk extrapolation.
type ProjectedRisk struct {
	YearsAhead int     `json:"years_ahead"`
	Age        int     `json:"age"`
	Score      float64 `json:"score"`
}

// CohortComparison relates the patient's score to their gender and
// age-decade cohort. Nil on the assessment when the age is below the
// minimum covered cohort.
type CohortComparison struct {
	Cohort              string          `json:"cohort"`
	CohortMean          float64         `json:"cohort_mean"`
	DeviationPct        float64         `json:"deviation_pct"`
	Descriptor          string          `json:"descriptor"`
	AgeAdjustedCategory RiskCategory    `json:"age_adjusted_category"`
	BiologicalAge       float64         `json:"biological_age"`
	Guidance            string          `json:"guidance"`
	Targets             BiomarkerTargets `json:"targets"`
	Screening           ScreeningCadence `json:"screening"`
	Projections         []ProjectedRisk `json:"projections"`
}

// ModelInfo is the published metadata of one constituent model.
type ModelInfo struct {
	ModelID      string  `json:"model_id"`
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	Population   string  `json:"population"`
	AUC          float64 `json:"auc"`
	TrainingDate string  `json:"training_date"`
	Weight       float64 `json:"weight"`
}

// AssessmentMetadata identifies the engine and model versions behind a
// result, for reproducibility and audit.
type AssessmentMetadata struct {
	EngineVersion string      `json:"engine_version"`
	Models        []ModelInfo `json:"models"`
}

// RiskAssessment is the complete, flat, serializable output of one
// assessment. Created fresh per call and never retained inside the engine.
type RiskAssessment struct {
	AssessmentID string    `json:"assessment_id"`
	CreatedAt    time.Time `json:"created_at"`

	Probability        float64            `json:"probability"`
	RiskScore          float64            `json:"risk_score"`
	DisplayScore       float64            `json:"display_score"`
	Confidence         float64            `json:"confidence"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`

	Stratification Stratification    `json:"stratification"`
	PerModelScores []ModelScore      `json:"per_model_scores"`
	TopRiskFactors []RiskFactor      `json:"top_risk_factors"`
	Cohort         *CohortComparison `json:"cohort,omitempty"`

	Metadata AssessmentMetadata `json:"metadata"`
}

// RoundScore rounds a score to one decimal for display. Full precision is
// carried internally.
func RoundScore(score float64) float64 {
	return math.Round(score*10) / 10
}
