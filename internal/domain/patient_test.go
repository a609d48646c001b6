package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() *PatientRecord {
	return &PatientRecord{
		Age:              52,
		SystolicBP:       128,
		DiastolicBP:      82,
		TotalCholesterol: 210,
		LDLCholesterol:   125,
		HDLCholesterol:   48,
		Triglycerides:    160,
		RestingHeartRate: 68,
		HeightCm:         172,
		WeightKg:         74,
		Sex:              FEMALE,
		Smoking:          SMOKING_FORMER,
		Diabetes:         DIABETES_NONE,
		PopulationGroup:  POP_NORTH_AMERICAN,
	}
}

func TestPatientRecord_ValidateAccepts(t *testing.T) {
	assert.NoError(t, validRecord().Validate())

	// Boundary values are inclusive.
	record := validRecord()
	record.Age = 18
	record.SystolicBP = 260
	record.HDLCholesterol = 10
	assert.NoError(t, record.Validate())
}

func TestPatientRecord_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *PatientRecord)
		field  string
	}{
		{"age below minimum", func(r *PatientRecord) { r.Age = 17 }, "age"},
		{"age above maximum", func(r *PatientRecord) { r.Age = 121 }, "age"},
		{"age NaN", func(r *PatientRecord) { r.Age = math.NaN() }, "age"},
		{"systolic infinity", func(r *PatientRecord) { r.SystolicBP = math.Inf(1) }, "systolic_bp"},
		{"diastolic too low", func(r *PatientRecord) { r.DiastolicBP = 20 }, "diastolic_bp"},
		{"cholesterol too high", func(r *PatientRecord) { r.TotalCholesterol = 900 }, "total_cholesterol"},
		{"triglycerides too high", func(r *PatientRecord) { r.Triglycerides = 2000 }, "triglycerides"},
		{"heart rate too low", func(r *PatientRecord) { r.RestingHeartRate = 10 }, "resting_heart_rate"},
		{"height implausible", func(r *PatientRecord) { r.HeightCm = 80 }, "height_cm"},
		{"weight implausible", func(r *PatientRecord) { r.WeightKg = 500 }, "weight_kg"},
		{"empty sex", func(r *PatientRecord) { r.Sex = "" }, "sex"},
		{"unknown smoking", func(r *PatientRecord) { r.Smoking = "socially" }, "smoking"},
		{"unknown diabetes", func(r *PatientRecord) { r.Diabetes = "maybe" }, "diabetes"},
		{"unknown population", func(r *PatientRecord) { r.PopulationGroup = "martian" }, "population_group"},
		{"oldpeak out of range", func(r *PatientRecord) { v := 12.0; r.Oldpeak = &v }, "oldpeak"},
		{"oldpeak NaN", func(r *PatientRecord) { v := math.NaN(); r.Oldpeak = &v }, "oldpeak"},
		{"max heart rate out of range", func(r *PatientRecord) { v := 40.0; r.MaxHeartRate = &v }, "max_heart_rate"},
		{"activity level negative", func(r *PatientRecord) { v := -1.0; r.ActivityLevel = &v }, "activity_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := validRecord()
			tt.mutate(record)

			err := record.Validate()
			require.Error(t, err)

			ve, ok := err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)
			assert.Equal(t, tt.field, ve.Field)
			assert.NotEmpty(t, ve.Message)
		})
	}
}

func TestPatientRecord_ValidateOptionalInRange(t *testing.T) {
	record := validRecord()
	oldpeak := 2.4
	maxHR := 165.0
	activity := 7.0
	angina := true
	famHist := false
	record.Oldpeak = &oldpeak
	record.MaxHeartRate = &maxHR
	record.ActivityLevel = &activity
	record.ExerciseAngina = &angina
	record.FamilyHistory = &famHist
	record.ChestPain = CP_ATYPICAL
	record.RestingECG = ECG_ST_T_ABNORMALITY
	record.STSlope = SLOPE_FLAT

	assert.NoError(t, record.Validate())
}

func TestPatientRecord_BMI(t *testing.T) {
	record := validRecord()
	record.HeightCm = 180
	record.WeightKg = 81
	assert.InDelta(t, 25.0, record.BMI(), 1e-9)

	record.HeightCm = 0
	assert.Zero(t, record.BMI(), "degenerate height never divides by zero")
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, MALE.IsValid())
	assert.True(t, FEMALE.IsValid())
	assert.False(t, Sex("other").IsValid())

	assert.True(t, SMOKING_CURRENT.IsValid())
	assert.False(t, SmokingStatus("").IsValid())

	assert.True(t, DIABETIC.IsValid())
	assert.False(t, DiabetesStatus("type-2").IsValid())

	for _, p := range []PopulationGroup{
		POP_NORTH_AMERICAN, POP_EUROPEAN, POP_SOUTH_ASIAN,
		POP_EAST_ASIAN, POP_AFRICAN, POP_HISPANIC, POP_OTHER,
	} {
		assert.True(t, p.IsValid(), string(p))
	}
	assert.False(t, PopulationGroup("global").IsValid())
}
