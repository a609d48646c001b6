// Package risk implements the cardiovascular risk scoring and stratification
// engine: feature normalization against fixed population statistics, a
// closed-form logistic evaluation, analytic confidence intervals,
// per-feature contribution decomposition, cohort-relative thresholds and
// five-band stratification. The engine is purely functional and stateless
// per call; all configuration is loaded once and read-only thereafter.
package risk

import (
	"github.com/cardio-risk-engine/internal/domain"
)

// FeatureKind distinguishes how a feature is normalized.
type FeatureKind int

const (
	// Continuous features are clamped into the training range then z-scored.
	Continuous FeatureKind = iota
	// Ordinal features use a fixed encoding table; unrecognized values take
	// the documented per-field default.
	Ordinal
	// Binary clinical flags pass through as 0/1.
	Binary
)

// Feature names, used as stable keys in coefficients, contributions and
// risk-factor output.
const (
	FeatureAge              = "age"
	FeatureSex              = "sex"
	FeatureSystolicBP       = "systolic_bp"
	FeatureDiastolicBP      = "diastolic_bp"
	FeatureTotalCholesterol = "total_cholesterol"
	FeatureLDL              = "ldl_cholesterol"
	FeatureHDL              = "hdl_cholesterol"
	FeatureTriglycerides    = "triglycerides"
	FeatureRestingHR        = "resting_heart_rate"
	FeatureBMI              = "bmi"
	FeatureSmoking          = "smoking"
	FeatureDiabetes         = "diabetes"
	FeaturePriorMI          = "prior_mi"
	FeaturePriorStroke      = "prior_stroke"
	FeatureFamilyHistory    = "family_history"
	FeatureChestPain        = "chest_pain"
	FeatureRestingECG       = "resting_ecg"
	FeatureSTSlope          = "st_slope"
	FeatureExerciseAngina   = "exercise_angina"
	FeatureOldpeak          = "oldpeak"
	FeatureMaxHeartRate     = "max_heart_rate"
	FeatureActivityLevel    = "activity_level"
)

// FeatureSpec describes one entry of the enumerated feature schema.
// Extract returns the raw (or ordinal-encoded) value and whether the field
// was present on the record; absent continuous features default to the
// training mean, which normalizes to zero.
type FeatureSpec struct {
	Name    string
	Label   string
	Kind    FeatureKind
	Extract func(p *domain.PatientRecord) (value float64, present bool)
}

// Ordinal encoding tables. Values are scaled into [0,1] so ordinal and
// binary features share the coefficient scale of a z-scored continuous
// feature near one standard deviation.
var (
	chestPainEncoding = map[domain.ChestPainType]float64{
		domain.CP_ASYMPTOMATIC: 0.0,
		domain.CP_NON_ANGINAL:  0.33,
		domain.CP_ATYPICAL:     0.66,
		domain.CP_TYPICAL:      1.0,
	}
	ecgEncoding = map[domain.ECGPattern]float64{
		domain.ECG_NORMAL:           0.0,
		domain.ECG_ST_T_ABNORMALITY: 0.5,
		domain.ECG_LV_HYPERTROPHY:   1.0,
	}
	slopeEncoding = map[domain.STSlope]float64{
		domain.SLOPE_UPSLOPING:   0.0,
		domain.SLOPE_FLAT:        0.5,
		domain.SLOPE_DOWNSLOPING: 1.0,
	}
	smokingEncoding = map[domain.SmokingStatus]float64{
		domain.SMOKING_NEVER:   0.0,
		domain.SMOKING_FORMER:  0.5,
		domain.SMOKING_CURRENT: 1.0,
	}
	diabetesEncoding = map[domain.DiabetesStatus]float64{
		domain.DIABETES_NONE: 0.0,
		domain.PREDIABETIC:   0.5,
		domain.DIABETIC:      1.0,
	}
)

// Documented ordinal defaults for unrecognized or absent values.
const (
	defaultChestPain = 0.0 // asymptomatic
	defaultECG       = 0.0 // normal
	defaultSlope     = 0.0 // upsloping
)

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func optionalBool(b *bool) (float64, bool) {
	if b == nil {
		return 0, false
	}
	return boolFeature(*b), true
}

func optionalFloat(f *float64) (float64, bool) {
	if f == nil {
		return 0, false
	}
	return *f, true
}

// featureSchema is the fixed, exhaustive, deterministically ordered feature
// list the model iterates. Normalization and completeness checks walk this
// static list, never arbitrary keys.
var featureSchema = []FeatureSpec{
	{FeatureAge, "Age", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.Age, true
	}},
	{FeatureSex, "Sex", Binary, func(p *domain.PatientRecord) (float64, bool) {
		return boolFeature(p.Sex == domain.MALE), true
	}},
	{FeatureSystolicBP, "Systolic blood pressure", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.SystolicBP, true
	}},
	{FeatureDiastolicBP, "Diastolic blood pressure", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.DiastolicBP, true
	}},
	{FeatureTotalCholesterol, "Total cholesterol", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.TotalCholesterol, true
	}},
	{FeatureLDL, "LDL cholesterol", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.LDLCholesterol, true
	}},
	{FeatureHDL, "HDL cholesterol", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.HDLCholesterol, true
	}},
	{FeatureTriglycerides, "Triglycerides", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.Triglycerides, true
	}},
	{FeatureRestingHR, "Resting heart rate", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.RestingHeartRate, true
	}},
	{FeatureBMI, "Body mass index", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return p.BMI(), true
	}},
	{FeatureSmoking, "Smoking status", Ordinal, func(p *domain.PatientRecord) (float64, bool) {
		v, ok := smokingEncoding[p.Smoking]
		if !ok {
			return 0, true // default: never
		}
		return v, true
	}},
	{FeatureDiabetes, "Diabetes status", Ordinal, func(p *domain.PatientRecord) (float64, bool) {
		v, ok := diabetesEncoding[p.Diabetes]
		if !ok {
			return 0, true // default: no
		}
		return v, true
	}},
	{FeaturePriorMI, "Prior myocardial infarction", Binary, func(p *domain.PatientRecord) (float64, bool) {
		return boolFeature(p.PriorMI), true
	}},
	{FeaturePriorStroke, "Prior stroke", Binary, func(p *domain.PatientRecord) (float64, bool) {
		return boolFeature(p.PriorStroke), true
	}},
	{FeatureFamilyHistory, "Family history of CVD", Binary, func(p *domain.PatientRecord) (float64, bool) {
		return optionalBool(p.FamilyHistory)
	}},
	{FeatureChestPain, "Chest pain type", Ordinal, func(p *domain.PatientRecord) (float64, bool) {
		v, ok := chestPainEncoding[p.ChestPain]
		if !ok {
			return defaultChestPain, true
		}
		return v, true
	}},
	{FeatureRestingECG, "Resting ECG pattern", Ordinal, func(p *domain.PatientRecord) (float64, bool) {
		v, ok := ecgEncoding[p.RestingECG]
		if !ok {
			return defaultECG, true
		}
		return v, true
	}},
	{FeatureSTSlope, "ST segment slope", Ordinal, func(p *domain.PatientRecord) (float64, bool) {
		v, ok := slopeEncoding[p.STSlope]
		if !ok {
			return defaultSlope, true
		}
		return v, true
	}},
	{FeatureExerciseAngina, "Exercise-induced angina", Binary, func(p *domain.PatientRecord) (float64, bool) {
		return optionalBool(p.ExerciseAngina)
	}},
	{FeatureOldpeak, "ST depression (oldpeak)", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return optionalFloat(p.Oldpeak)
	}},
	{FeatureMaxHeartRate, "Maximum heart rate", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return optionalFloat(p.MaxHeartRate)
	}},
	{FeatureActivityLevel, "Physical activity level", Continuous, func(p *domain.PatientRecord) (float64, bool) {
		return optionalFloat(p.ActivityLevel)
	}},
}

// FeatureSchema returns the ordered feature list. Callers must not mutate
// the returned slice.
func FeatureSchema() []FeatureSpec {
	return featureSchema
}

// FeatureLabel returns the human-readable label for a feature name.
func FeatureLabel(name string) string {
	for i := range featureSchema {
		if featureSchema[i].Name == name {
			return featureSchema[i].Label
		}
	}
	return name
}
