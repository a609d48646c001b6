package risk

import (
	"math"

	"github.com/cardio-risk-engine/internal/domain"
)

// NormalizedFeatures is a unit-scaled feature vector aligned with the
// feature schema order.
type NormalizedFeatures struct {
	Values []float64
}

// clamp bounds v into [min,max]. Used strictly for internal numeric
// stability against the training range; boundary validation happens
// before normalization.
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Normalize maps a raw patient record into a unit-scaled feature vector
// using the parameter set's training statistics. Continuous features are
// clamped into the training range and z-scored; absent optional continuous
// features default to the training mean (normalized zero). Ordinal and
// binary features carry their encoded values through unchanged.
func Normalize(p *domain.PatientRecord, params *ModelParameters) (*NormalizedFeatures, error) {
	schema := FeatureSchema()
	values := make([]float64, len(schema))

	for i, spec := range schema {
		raw, present := spec.Extract(p)
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return nil, domain.NewComputationError("normalize",
				"non-finite raw value for feature "+spec.Name, raw)
		}

		switch spec.Kind {
		case Continuous:
			if !present {
				values[i] = 0 // training mean
				continue
			}
			ns := params.Norm[spec.Name]
			clamped := clamp(raw, ns.Min, ns.Max)
			values[i] = (clamped - ns.Mean) / ns.Std
		default:
			values[i] = raw
		}
	}

	return &NormalizedFeatures{Values: values}, nil
}
