package ml

import "fmt"

const (
	ModelDecisionTree       = "decision_tree"
	ModelLogisticRegression = "logistic_regression"
)

// LoadModel reads the artifact at path and returns it as a ready Predictor.
func LoadModel(modelType, path string) (Predictor, error) {
	switch modelType {
	case ModelDecisionTree:
		model := &DecisionTree{}
		if err := model.Load(path); err != nil {
			return nil, fmt.Errorf("load %s from %s: %w", modelType, path, err)
		}
		return model, nil
	case ModelLogisticRegression:
		model := &LogisticRegression{}
		if err := model.Load(path); err != nil {
			return nil, fmt.Errorf("load %s from %s: %w", modelType, path, err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}
}
