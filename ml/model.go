package ml

import "errors"

var (
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrFeatureCount     = errors.New("feature vector has wrong length")
	ErrNotLoaded        = errors.New("model not loaded")
)

// FeatureVector is the ordered numeric input handed to a Predictor.
type FeatureVector []float64

// Predictor is the capability a loaded model artifact exposes. Implementations
// must be safe for concurrent use once loaded; none of them mutate state on
// Predict or PredictProba.
type Predictor interface {
	// Predict returns the binary class label for the vector.
	Predict(features FeatureVector) (int, error)
	// PredictProba returns the class distribution, index 0 negative, index 1 positive.
	PredictProba(features FeatureVector) ([]float64, error)
}
