package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// LogisticRegression is a fitted binary logistic model:
// p(1|x) = sigmoid(coefficients·x + intercept).
type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	// Threshold on p(1|x) above which Predict returns 1. Zero means 0.5.
	Threshold float64 `json:"threshold,omitempty"`
}

func (lr *LogisticRegression) Predict(features FeatureVector) (int, error) {
	probs, err := lr.PredictProba(features)
	if err != nil {
		return 0, err
	}
	threshold := lr.Threshold
	if threshold == 0 {
		threshold = 0.5
	}
	if probs[1] >= threshold {
		return 1, nil
	}
	return 0, nil
}

func (lr *LogisticRegression) PredictProba(features FeatureVector) ([]float64, error) {
	if len(lr.Coefficients) == 0 {
		return nil, ErrNotLoaded
	}
	if len(features) != len(lr.Coefficients) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), len(lr.Coefficients))
	}
	z := lr.Intercept
	for i, w := range lr.Coefficients {
		z += w * features[i]
	}
	p := 1 / (1 + math.Exp(-z))
	if math.IsNaN(p) {
		return nil, errors.New("logistic score is not a number")
	}
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact struct {
		FeatureCount int `json:"feature_count"`
		LogisticRegression
	}
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("decode logistic regression: %w", err)
	}
	if len(artifact.Coefficients) == 0 {
		return errors.New("coefficients are required")
	}
	if artifact.FeatureCount != 0 && artifact.FeatureCount != len(artifact.Coefficients) {
		return fmt.Errorf("feature_count %d does not match %d coefficients", artifact.FeatureCount, len(artifact.Coefficients))
	}
	if artifact.Threshold < 0 || artifact.Threshold >= 1 {
		return fmt.Errorf("threshold %v out of range", artifact.Threshold)
	}
	*lr = artifact.LogisticRegression
	return nil
}
