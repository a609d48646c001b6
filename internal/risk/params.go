package risk

import (
	"fmt"

	"github.com/cardio-risk-engine/internal/domain"
)

// NormStats are the fixed training-set statistics used for feature
// normalization: raw values are clamped into [Min,Max] then z-scored with
// Mean and Std.
type NormStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// ModelParameters is one immutable, versioned coefficient set for the
// linear-logistic model. Coefficients and normalization statistics are
// fixed constants supplied at initialization; the engine never trains.
type ModelParameters struct {
	ModelID      string  `json:"model_id"`
	Name         string  `json:"name"`
	Version      string  `json:"version"`
	Population   string  `json:"population"`
	AUC          float64 `json:"auc"`
	TrainingDate string  `json:"training_date"`
	Weight       float64 `json:"weight"`

	Intercept   float64 `json:"intercept"`
	DispersionK float64 `json:"dispersion_k"`

	Coefficients   map[string]float64   `json:"coefficients"`
	StandardErrors map[string]float64   `json:"standard_errors"`
	Norm           map[string]NormStats `json:"normalization"`
}

// Validate checks the parameter set against the feature schema. Any gap or
// inconsistency is a ConfigurationError: the engine must not serve with a
// partial coefficient set.
func (m *ModelParameters) Validate() error {
	if m.ModelID == "" {
		return domain.NewConfigurationError("model_parameters", "model ID is required")
	}
	if m.AUC <= 0.5 || m.AUC > 1.0 {
		return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("AUC %v outside (0.5, 1.0]", m.AUC))
	}
	if m.Weight <= 0 {
		return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("blend weight %v must be positive", m.Weight))
	}
	if m.DispersionK <= 0 {
		return domain.NewConfigurationError(m.ModelID, "dispersion constant must be positive")
	}
	for _, spec := range FeatureSchema() {
		if _, ok := m.Coefficients[spec.Name]; !ok {
			return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("missing coefficient for feature %q", spec.Name))
		}
		if _, ok := m.StandardErrors[spec.Name]; !ok {
			return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("missing standard error for feature %q", spec.Name))
		}
		if spec.Kind == Continuous {
			ns, ok := m.Norm[spec.Name]
			if !ok {
				return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("missing normalization stats for feature %q", spec.Name))
			}
			if ns.Std <= 0 {
				return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("non-positive std for feature %q", spec.Name))
			}
			if ns.Min >= ns.Max {
				return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("empty training range for feature %q", spec.Name))
			}
			if ns.Mean < ns.Min || ns.Mean > ns.Max {
				return domain.NewConfigurationError(m.ModelID, fmt.Sprintf("mean outside training range for feature %q", spec.Name))
			}
		}
	}
	return nil
}

// Info returns the published metadata for this parameter set.
func (m *ModelParameters) Info() domain.ModelInfo {
	return domain.ModelInfo{
		ModelID:      m.ModelID,
		Name:         m.Name,
		Version:      m.Version,
		Population:   m.Population,
		AUC:          m.AUC,
		TrainingDate: m.TrainingDate,
		Weight:       m.Weight,
	}
}

// DefaultModelSet returns the three built-in calibration variants. The
// blend weights mirror the production ensemble (0.40 / 0.35 / 0.25) and
// are configuration constants, not a statistically derived combination.
func DefaultModelSet() []ModelParameters {
	return []ModelParameters{
		northAmericanParams(),
		europeanParams(),
		globalParams(),
	}
}

func northAmericanParams() ModelParameters {
	return ModelParameters{
		ModelID:      "cvd-na",
		Name:         "North American calibration",
		Version:      "2.3.0",
		Population:   string(domain.POP_NORTH_AMERICAN),
		AUC:          0.91,
		TrainingDate: "2024-11-18",
		Weight:       0.40,
		Intercept:    -1.10,
		DispersionK:  0.05,
		Coefficients: map[string]float64{
			FeatureAge: 0.65, FeatureSex: 0.35,
			FeatureSystolicBP: 0.45, FeatureDiastolicBP: 0.15,
			FeatureTotalCholesterol: 0.20, FeatureLDL: 0.40, FeatureHDL: -0.30,
			FeatureTriglycerides: 0.15, FeatureRestingHR: 0.10, FeatureBMI: 0.20,
			FeatureSmoking: 0.80, FeatureDiabetes: 0.70,
			FeaturePriorMI: 0.90, FeaturePriorStroke: 0.75, FeatureFamilyHistory: 0.30,
			FeatureChestPain: 0.45, FeatureRestingECG: 0.25, FeatureSTSlope: 0.30,
			FeatureExerciseAngina: 0.40, FeatureOldpeak: 0.35,
			FeatureMaxHeartRate: -0.25, FeatureActivityLevel: -0.15,
		},
		StandardErrors: map[string]float64{
			FeatureAge: 0.09, FeatureSex: 0.06,
			FeatureSystolicBP: 0.07, FeatureDiastolicBP: 0.04,
			FeatureTotalCholesterol: 0.05, FeatureLDL: 0.06, FeatureHDL: 0.05,
			FeatureTriglycerides: 0.04, FeatureRestingHR: 0.03, FeatureBMI: 0.04,
			FeatureSmoking: 0.11, FeatureDiabetes: 0.10,
			FeaturePriorMI: 0.13, FeaturePriorStroke: 0.12, FeatureFamilyHistory: 0.06,
			FeatureChestPain: 0.08, FeatureRestingECG: 0.05, FeatureSTSlope: 0.06,
			FeatureExerciseAngina: 0.07, FeatureOldpeak: 0.06,
			FeatureMaxHeartRate: 0.05, FeatureActivityLevel: 0.04,
		},
		Norm: map[string]NormStats{
			FeatureAge:              {Mean: 54, Std: 9, Min: 18, Max: 100},
			FeatureSystolicBP:       {Mean: 132, Std: 18, Min: 70, Max: 250},
			FeatureDiastolicBP:      {Mean: 83, Std: 11, Min: 40, Max: 160},
			FeatureTotalCholesterol: {Mean: 240, Std: 52, Min: 100, Max: 600},
			FeatureLDL:              {Mean: 130, Std: 35, Min: 30, Max: 400},
			FeatureHDL:              {Mean: 50, Std: 13, Min: 15, Max: 120},
			FeatureTriglycerides:    {Mean: 150, Std: 85, Min: 40, Max: 900},
			FeatureRestingHR:        {Mean: 72, Std: 11, Min: 35, Max: 200},
			FeatureBMI:              {Mean: 26.5, Std: 4.5, Min: 14, Max: 55},
			FeatureOldpeak:          {Mean: 1.0, Std: 1.1, Min: 0, Max: 10},
			FeatureMaxHeartRate:     {Mean: 149, Std: 23, Min: 60, Max: 230},
			FeatureActivityLevel:    {Mean: 5, Std: 2.5, Min: 0, Max: 10},
		},
	}
}

func europeanParams() ModelParameters {
	return ModelParameters{
		ModelID:      "cvd-eu",
		Name:         "European calibration",
		Version:      "2.1.0",
		Population:   string(domain.POP_EUROPEAN),
		AUC:          0.89,
		TrainingDate: "2024-09-02",
		Weight:       0.35,
		Intercept:    -1.25,
		DispersionK:  0.05,
		Coefficients: map[string]float64{
			FeatureAge: 0.70, FeatureSex: 0.30,
			FeatureSystolicBP: 0.50, FeatureDiastolicBP: 0.12,
			FeatureTotalCholesterol: 0.25, FeatureLDL: 0.35, FeatureHDL: -0.28,
			FeatureTriglycerides: 0.12, FeatureRestingHR: 0.08, FeatureBMI: 0.18,
			FeatureSmoking: 0.90, FeatureDiabetes: 0.60,
			FeaturePriorMI: 0.85, FeaturePriorStroke: 0.80, FeatureFamilyHistory: 0.25,
			FeatureChestPain: 0.40, FeatureRestingECG: 0.22, FeatureSTSlope: 0.28,
			FeatureExerciseAngina: 0.38, FeatureOldpeak: 0.32,
			FeatureMaxHeartRate: -0.22, FeatureActivityLevel: -0.18,
		},
		StandardErrors: map[string]float64{
			FeatureAge: 0.10, FeatureSex: 0.05,
			FeatureSystolicBP: 0.08, FeatureDiastolicBP: 0.03,
			FeatureTotalCholesterol: 0.06, FeatureLDL: 0.05, FeatureHDL: 0.05,
			FeatureTriglycerides: 0.03, FeatureRestingHR: 0.03, FeatureBMI: 0.04,
			FeatureSmoking: 0.12, FeatureDiabetes: 0.09,
			FeaturePriorMI: 0.12, FeaturePriorStroke: 0.13, FeatureFamilyHistory: 0.05,
			FeatureChestPain: 0.07, FeatureRestingECG: 0.05, FeatureSTSlope: 0.05,
			FeatureExerciseAngina: 0.06, FeatureOldpeak: 0.06,
			FeatureMaxHeartRate: 0.04, FeatureActivityLevel: 0.05,
		},
		Norm: map[string]NormStats{
			FeatureAge:              {Mean: 55, Std: 9.5, Min: 18, Max: 100},
			FeatureSystolicBP:       {Mean: 135, Std: 19, Min: 70, Max: 250},
			FeatureDiastolicBP:      {Mean: 84, Std: 11, Min: 40, Max: 160},
			FeatureTotalCholesterol: {Mean: 225, Std: 48, Min: 100, Max: 600},
			FeatureLDL:              {Mean: 125, Std: 33, Min: 30, Max: 400},
			FeatureHDL:              {Mean: 52, Std: 13, Min: 15, Max: 120},
			FeatureTriglycerides:    {Mean: 140, Std: 78, Min: 40, Max: 900},
			FeatureRestingHR:        {Mean: 70, Std: 10, Min: 35, Max: 200},
			FeatureBMI:              {Mean: 25.8, Std: 4.2, Min: 14, Max: 55},
			FeatureOldpeak:          {Mean: 0.9, Std: 1.0, Min: 0, Max: 10},
			FeatureMaxHeartRate:     {Mean: 151, Std: 22, Min: 60, Max: 230},
			FeatureActivityLevel:    {Mean: 5.4, Std: 2.4, Min: 0, Max: 10},
		},
	}
}

func globalParams() ModelParameters {
	return ModelParameters{
		ModelID:      "cvd-global",
		Name:         "Global calibration",
		Version:      "1.8.0",
		Population:   "global",
		AUC:          0.86,
		TrainingDate: "2024-06-30",
		Weight:       0.25,
		Intercept:    -1.00,
		DispersionK:  0.05,
		Coefficients: map[string]float64{
			FeatureAge: 0.60, FeatureSex: 0.32,
			FeatureSystolicBP: 0.48, FeatureDiastolicBP: 0.14,
			FeatureTotalCholesterol: 0.18, FeatureLDL: 0.38, FeatureHDL: -0.26,
			FeatureTriglycerides: 0.14, FeatureRestingHR: 0.12, FeatureBMI: 0.22,
			FeatureSmoking: 0.75, FeatureDiabetes: 0.78,
			FeaturePriorMI: 0.88, FeaturePriorStroke: 0.78, FeatureFamilyHistory: 0.28,
			FeatureChestPain: 0.42, FeatureRestingECG: 0.24, FeatureSTSlope: 0.26,
			FeatureExerciseAngina: 0.36, FeatureOldpeak: 0.30,
			FeatureMaxHeartRate: -0.20, FeatureActivityLevel: -0.12,
		},
		StandardErrors: map[string]float64{
			FeatureAge: 0.08, FeatureSex: 0.05,
			FeatureSystolicBP: 0.07, FeatureDiastolicBP: 0.04,
			FeatureTotalCholesterol: 0.05, FeatureLDL: 0.06, FeatureHDL: 0.04,
			FeatureTriglycerides: 0.04, FeatureRestingHR: 0.04, FeatureBMI: 0.05,
			FeatureSmoking: 0.10, FeatureDiabetes: 0.11,
			FeaturePriorMI: 0.12, FeaturePriorStroke: 0.12, FeatureFamilyHistory: 0.06,
			FeatureChestPain: 0.07, FeatureRestingECG: 0.05, FeatureSTSlope: 0.05,
			FeatureExerciseAngina: 0.06, FeatureOldpeak: 0.05,
			FeatureMaxHeartRate: 0.04, FeatureActivityLevel: 0.03,
		},
		Norm: map[string]NormStats{
			FeatureAge:              {Mean: 52, Std: 10, Min: 18, Max: 100},
			FeatureSystolicBP:       {Mean: 130, Std: 18, Min: 70, Max: 250},
			FeatureDiastolicBP:      {Mean: 82, Std: 11, Min: 40, Max: 160},
			FeatureTotalCholesterol: {Mean: 215, Std: 50, Min: 100, Max: 600},
			FeatureLDL:              {Mean: 120, Std: 34, Min: 30, Max: 400},
			FeatureHDL:              {Mean: 48, Std: 12, Min: 15, Max: 120},
			FeatureTriglycerides:    {Mean: 155, Std: 88, Min: 40, Max: 900},
			FeatureRestingHR:        {Mean: 73, Std: 11, Min: 35, Max: 200},
			FeatureBMI:              {Mean: 25.2, Std: 4.8, Min: 14, Max: 55},
			FeatureOldpeak:          {Mean: 1.1, Std: 1.2, Min: 0, Max: 10},
			FeatureMaxHeartRate:     {Mean: 147, Std: 23, Min: 60, Max: 230},
			FeatureActivityLevel:    {Mean: 4.8, Std: 2.6, Min: 0, Max: 10},
		},
	}
}
