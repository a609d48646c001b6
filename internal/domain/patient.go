// Package domain contains core business entities and types for cardiovascular
// risk assessment. The engine converts a structured patient record into a
// calibrated risk probability with per-feature explanation; it performs
// decision support only, never clinical diagnosis.
package domain

import (
	"fmt"
	"math"
)

// Sex is the patient's sex as recorded for risk calibration.
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// SmokingStatus represents the patient's smoking history.
type SmokingStatus string

const (
	SMOKING_NEVER   SmokingStatus = "never"
	SMOKING_FORMER  SmokingStatus = "former"
	SMOKING_CURRENT SmokingStatus = "current"
)

// DiabetesStatus represents glycemic status.
type DiabetesStatus string

const (
	DIABETES_NONE DiabetesStatus = "no"
	PREDIABETIC   DiabetesStatus = "prediabetic"
	DIABETIC      DiabetesStatus = "diabetic"
)

// PopulationGroup identifies the reference population the patient declared.
// Model variants calibrated to a matching population receive a modest
// upward weight adjustment during aggregation.
type PopulationGroup string

const (
	POP_NORTH_AMERICAN PopulationGroup = "north-american"
	POP_EUROPEAN       PopulationGroup = "european"
	POP_SOUTH_ASIAN    PopulationGroup = "south-asian"
	POP_EAST_ASIAN     PopulationGroup = "east-asian"
	POP_AFRICAN        PopulationGroup = "african"
	POP_HISPANIC       PopulationGroup = "hispanic"
	POP_OTHER          PopulationGroup = "other"
)

// ChestPainType is the reported chest pain presentation.
type ChestPainType string

const (
	CP_ASYMPTOMATIC ChestPainType = "asymptomatic"
	CP_NON_ANGINAL  ChestPainType = "non-anginal"
	CP_ATYPICAL     ChestPainType = "atypical-angina"
	CP_TYPICAL      ChestPainType = "typical-angina"
)

// ECGPattern is the resting electrocardiogram result.
type ECGPattern string

const (
	ECG_NORMAL           ECGPattern = "normal"
	ECG_ST_T_ABNORMALITY ECGPattern = "st-t-abnormality"
	ECG_LV_HYPERTROPHY   ECGPattern = "lv-hypertrophy"
)

// STSlope is the slope of the peak exercise ST segment.
type STSlope string

const (
	SLOPE_UPSLOPING   STSlope = "upsloping"
	SLOPE_FLAT        STSlope = "flat"
	SLOPE_DOWNSLOPING STSlope = "downsloping"
)

// IsValid reports whether the sex value is one the engine recognizes.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

// IsValid reports whether the smoking status is recognized.
func (s SmokingStatus) IsValid() bool {
	switch s {
	case SMOKING_NEVER, SMOKING_FORMER, SMOKING_CURRENT:
		return true
	default:
		return false
	}
}

// IsValid reports whether the diabetes status is recognized.
func (d DiabetesStatus) IsValid() bool {
	switch d {
	case DIABETES_NONE, PREDIABETIC, DIABETIC:
		return true
	default:
		return false
	}
}

// IsValid reports whether the population group is recognized.
func (p PopulationGroup) IsValid() bool {
	switch p {
	case POP_NORTH_AMERICAN, POP_EUROPEAN, POP_SOUTH_ASIAN, POP_EAST_ASIAN,
		POP_AFRICAN, POP_HISPANIC, POP_OTHER:
		return true
	default:
		return false
	}
}

// PatientRecord is the immutable input to a single risk assessment.
// Required numeric and categorical fields must pass Validate before the
// record reaches the model; optional fields fall back to documented
// defaults during normalization and never abort computation.
type PatientRecord struct {
	// Required numerics
	Age              float64 `json:"age"`
	SystolicBP       float64 `json:"systolic_bp"`
	DiastolicBP      float64 `json:"diastolic_bp"`
	TotalCholesterol float64 `json:"total_cholesterol"`
	LDLCholesterol   float64 `json:"ldl_cholesterol"`
	HDLCholesterol   float64 `json:"hdl_cholesterol"`
	Triglycerides    float64 `json:"triglycerides"`
	RestingHeartRate float64 `json:"resting_heart_rate"`
	HeightCm         float64 `json:"height_cm"`
	WeightKg         float64 `json:"weight_kg"`

	// Required categorical / boolean
	Sex             Sex             `json:"sex"`
	Smoking         SmokingStatus   `json:"smoking"`
	Diabetes        DiabetesStatus  `json:"diabetes"`
	PriorMI         bool            `json:"prior_mi"`
	PriorStroke     bool            `json:"prior_stroke"`
	PopulationGroup PopulationGroup `json:"population_group"`

	// Optional clinical detail. Zero-valued enums and nil pointers take the
	// documented per-field default during normalization.
	ChestPain      ChestPainType `json:"chest_pain,omitempty"`
	RestingECG     ECGPattern    `json:"resting_ecg,omitempty"`
	STSlope        STSlope       `json:"st_slope,omitempty"`
	ExerciseAngina *bool         `json:"exercise_angina,omitempty"`
	Oldpeak        *float64      `json:"oldpeak,omitempty"`
	MaxHeartRate   *float64      `json:"max_heart_rate,omitempty"`
	FamilyHistory  *bool         `json:"family_history,omitempty"`
	ActivityLevel  *float64      `json:"activity_level,omitempty"`
}

// BMI derives body mass index from height and weight.
func (p *PatientRecord) BMI() float64 {
	if p.HeightCm <= 0 {
		return 0
	}
	m := p.HeightCm / 100.0
	return p.WeightKg / (m * m)
}

// numericBound defines the physically plausible range for a required field.
type numericBound struct {
	field string
	value float64
	min   float64
	max   float64
}

// Validate enforces the engine's boundary policy: out-of-range or
// non-finite values are rejected with a field-identified error rather than
// silently clamped. Clamping is reserved for internal numeric stability
// against the training range, which is narrower than these bounds.
func (p *PatientRecord) Validate() error {
	bounds := []numericBound{
		{"age", p.Age, 18, 120},
		{"systolic_bp", p.SystolicBP, 60, 260},
		{"diastolic_bp", p.DiastolicBP, 30, 200},
		{"total_cholesterol", p.TotalCholesterol, 50, 700},
		{"ldl_cholesterol", p.LDLCholesterol, 20, 500},
		{"hdl_cholesterol", p.HDLCholesterol, 10, 150},
		{"triglycerides", p.Triglycerides, 30, 1500},
		{"resting_heart_rate", p.RestingHeartRate, 30, 220},
		{"height_cm", p.HeightCm, 100, 250},
		{"weight_kg", p.WeightKg, 30, 350},
	}
	for _, b := range bounds {
		if math.IsNaN(b.value) || math.IsInf(b.value, 0) {
			return NewValidationError(b.field, "value must be a finite number", b.value)
		}
		if b.value < b.min || b.value > b.max {
			return NewValidationError(b.field,
				fmt.Sprintf("value outside plausible range [%g, %g]", b.min, b.max), b.value)
		}
	}

	if !p.Sex.IsValid() {
		return NewValidationError("sex", "must be 'male' or 'female'", string(p.Sex))
	}
	if !p.Smoking.IsValid() {
		return NewValidationError("smoking", "must be 'never', 'former' or 'current'", string(p.Smoking))
	}
	if !p.Diabetes.IsValid() {
		return NewValidationError("diabetes", "must be 'no', 'prediabetic' or 'diabetic'", string(p.Diabetes))
	}
	if !p.PopulationGroup.IsValid() {
		return NewValidationError("population_group", "unrecognized population group", string(p.PopulationGroup))
	}

	// Optional numerics still have to be finite and plausible when present.
	if p.Oldpeak != nil {
		if math.IsNaN(*p.Oldpeak) || math.IsInf(*p.Oldpeak, 0) || *p.Oldpeak < 0 || *p.Oldpeak > 10 {
			return NewValidationError("oldpeak", "value outside plausible range [0, 10]", *p.Oldpeak)
		}
	}
	if p.MaxHeartRate != nil {
		if math.IsNaN(*p.MaxHeartRate) || math.IsInf(*p.MaxHeartRate, 0) || *p.MaxHeartRate < 60 || *p.MaxHeartRate > 250 {
			return NewValidationError("max_heart_rate", "value outside plausible range [60, 250]", *p.MaxHeartRate)
		}
	}
	if p.ActivityLevel != nil {
		if math.IsNaN(*p.ActivityLevel) || math.IsInf(*p.ActivityLevel, 0) || *p.ActivityLevel < 0 || *p.ActivityLevel > 10 {
			return NewValidationError("activity_level", "value outside plausible range [0, 10]", *p.ActivityLevel)
		}
	}

	return nil
}
