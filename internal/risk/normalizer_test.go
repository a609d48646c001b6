package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardio-risk-engine/internal/domain"
)

func featureIndex(t *testing.T, name string) int {
	t.Helper()
	for i, spec := range FeatureSchema() {
		if spec.Name == name {
			return i
		}
	}
	t.Fatalf("feature %q not in schema", name)
	return -1
}

func TestNormalize_ZScoresContinuous(t *testing.T) {
	params := northAmericanParams()
	record := baselineRecord()
	record.Age = 54 // training mean
	record.SystolicBP = 150

	features, err := Normalize(record, &params)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, features.Values[featureIndex(t, FeatureAge)], 1e-9)
	// (150 - 132) / 18 = 1.0
	assert.InDelta(t, 1.0, features.Values[featureIndex(t, FeatureSystolicBP)], 1e-9)
}

func TestNormalize_ClampsToTrainingRange(t *testing.T) {
	params := northAmericanParams()

	high := baselineRecord()
	high.SystolicBP = 400 // above the training max of 250
	features, err := Normalize(high, &params)
	require.NoError(t, err)
	want := (250.0 - 132.0) / 18.0
	assert.InDelta(t, want, features.Values[featureIndex(t, FeatureSystolicBP)], 1e-9)

	low := baselineRecord()
	low.HDLCholesterol = 5 // below the training min of 15
	features, err = Normalize(low, &params)
	require.NoError(t, err)
	want = (15.0 - 50.0) / 13.0
	assert.InDelta(t, want, features.Values[featureIndex(t, FeatureHDL)], 1e-9)
}

// Absent optional continuous features fall back to the training mean, which
// normalizes to exactly zero and contributes nothing to the score.
func TestNormalize_AbsentOptionalDefaultsToMean(t *testing.T) {
	params := northAmericanParams()
	record := baselineRecord()
	require.Nil(t, record.Oldpeak)
	require.Nil(t, record.MaxHeartRate)
	require.Nil(t, record.ActivityLevel)

	features, err := Normalize(record, &params)
	require.NoError(t, err)

	assert.Zero(t, features.Values[featureIndex(t, FeatureOldpeak)])
	assert.Zero(t, features.Values[featureIndex(t, FeatureMaxHeartRate)])
	assert.Zero(t, features.Values[featureIndex(t, FeatureActivityLevel)])
	assert.Zero(t, features.Values[featureIndex(t, FeatureFamilyHistory)])
}

func TestNormalize_OrdinalEncoding(t *testing.T) {
	params := northAmericanParams()

	tests := []struct {
		name   string
		mutate func(r *domain.PatientRecord)
		field  string
		want   float64
	}{
		{"smoking never", func(r *domain.PatientRecord) { r.Smoking = domain.SMOKING_NEVER }, FeatureSmoking, 0.0},
		{"smoking former", func(r *domain.PatientRecord) { r.Smoking = domain.SMOKING_FORMER }, FeatureSmoking, 0.5},
		{"smoking current", func(r *domain.PatientRecord) { r.Smoking = domain.SMOKING_CURRENT }, FeatureSmoking, 1.0},
		{"prediabetic", func(r *domain.PatientRecord) { r.Diabetes = domain.PREDIABETIC }, FeatureDiabetes, 0.5},
		{"diabetic", func(r *domain.PatientRecord) { r.Diabetes = domain.DIABETIC }, FeatureDiabetes, 1.0},
		{"typical angina", func(r *domain.PatientRecord) { r.ChestPain = domain.CP_TYPICAL }, FeatureChestPain, 1.0},
		{"non-anginal pain", func(r *domain.PatientRecord) { r.ChestPain = domain.CP_NON_ANGINAL }, FeatureChestPain, 0.33},
		{"absent chest pain defaults asymptomatic", func(r *domain.PatientRecord) {}, FeatureChestPain, 0.0},
		{"absent ECG defaults normal", func(r *domain.PatientRecord) {}, FeatureRestingECG, 0.0},
		{"flat slope", func(r *domain.PatientRecord) { r.STSlope = domain.SLOPE_FLAT }, FeatureSTSlope, 0.5},
		{"male sex flag", func(r *domain.PatientRecord) { r.Sex = domain.MALE }, FeatureSex, 1.0},
		{"female sex flag", func(r *domain.PatientRecord) { r.Sex = domain.FEMALE }, FeatureSex, 0.0},
		{"prior MI flag", func(r *domain.PatientRecord) { r.PriorMI = true }, FeaturePriorMI, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := baselineRecord()
			tt.mutate(record)
			features, err := Normalize(record, &params)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, features.Values[featureIndex(t, tt.field)], 1e-9)
		})
	}
}

func TestNormalize_RejectsNonFinite(t *testing.T) {
	params := northAmericanParams()

	record := baselineRecord()
	record.TotalCholesterol = math.NaN()
	_, err := Normalize(record, &params)
	require.Error(t, err)
	assert.True(t, domain.IsComputationError(err))

	record = baselineRecord()
	oldpeak := math.Inf(1)
	record.Oldpeak = &oldpeak
	_, err = Normalize(record, &params)
	require.Error(t, err)
	assert.True(t, domain.IsComputationError(err))
}

func TestNormalize_VectorMatchesSchema(t *testing.T) {
	params := europeanParams()
	features, err := Normalize(baselineRecord(), &params)
	require.NoError(t, err)
	assert.Len(t, features.Values, len(FeatureSchema()))
	for i, v := range features.Values {
		assert.False(t, math.IsNaN(v), "feature %s", FeatureSchema()[i].Name)
	}
}
