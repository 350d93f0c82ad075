package pipeline

import "diabetesapi/ml"

// BuildFeatureVector projects a validated payload onto the model's column
// order. It does no checking of its own.
func BuildFeatureVector(p Payload) ml.FeatureVector {
	vec := make(ml.FeatureVector, len(RequiredFields))
	for i, f := range RequiredFields {
		vec[i], _ = numericValue(p[f.Name])
	}
	return vec
}
