package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

type DecisionTree struct {
	featureCount int
	nodes        []TreeNode
}

type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	ClassLabel    int       `json:"class_label"`
	IsLeaf        bool      `json:"is_leaf"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

type treeArtifact struct {
	FeatureCount int        `json:"feature_count"`
	Nodes        []TreeNode `json:"nodes"`
}

// NewDecisionTree builds a tree from already-fitted nodes. Node 0 is the root.
func NewDecisionTree(featureCount int, nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{featureCount: featureCount, nodes: nodes}
	if err := dt.check(); err != nil {
		return nil, err
	}
	return dt, nil
}

func (dt *DecisionTree) Predict(features FeatureVector) (int, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return 0, err
	}
	return leaf.ClassLabel, nil
}

func (dt *DecisionTree) PredictProba(features FeatureVector) ([]float64, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return nil, err
	}
	if len(leaf.Probabilities) == 0 {
		probs := []float64{0, 0}
		probs[leaf.ClassLabel] = 1
		return probs, nil
	}
	return append([]float64(nil), leaf.Probabilities...), nil
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model has no nodes")
	}
	payload, err := json.Marshal(treeArtifact{FeatureCount: dt.featureCount, Nodes: dt.nodes})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var artifact treeArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return fmt.Errorf("decode decision tree: %w", err)
	}
	loaded := DecisionTree{featureCount: artifact.FeatureCount, nodes: artifact.Nodes}
	if err := loaded.check(); err != nil {
		return err
	}
	*dt = loaded
	return nil
}

func (dt *DecisionTree) leaf(features FeatureVector) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, ErrNotLoaded
	}
	if len(features) != dt.featureCount {
		return TreeNode{}, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), dt.featureCount)
	}
	idx := 0
	// A well-formed tree reaches a leaf in at most len(nodes) steps.
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return TreeNode{}, errors.New("invalid tree state")
}

func (dt *DecisionTree) check() error {
	if dt.featureCount <= 0 {
		return errors.New("feature_count must be positive")
	}
	if len(dt.nodes) == 0 {
		return errors.New("model has no nodes")
	}
	for i, node := range dt.nodes {
		if node.IsLeaf {
			if node.ClassLabel != 0 && node.ClassLabel != 1 {
				return fmt.Errorf("node %d: class label %d is not binary", i, node.ClassLabel)
			}
			if err := checkDistribution(node.Probabilities); err != nil {
				return fmt.Errorf("node %d: %w", i, err)
			}
			if len(node.Probabilities) == 2 && node.Probabilities[node.ClassLabel] < node.Probabilities[1-node.ClassLabel] {
				return fmt.Errorf("node %d: class label %d disagrees with probabilities %v", i, node.ClassLabel, node.Probabilities)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dt.featureCount {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if !validChild(node.LeftChild, len(dt.nodes)) || !validChild(node.RightChild, len(dt.nodes)) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

func validChild(idx, n int) bool {
	return idx > 0 && idx < n
}

func checkDistribution(probs []float64) error {
	if len(probs) == 0 {
		return nil
	}
	if len(probs) != 2 {
		return fmt.Errorf("expected 2 probabilities, got %d", len(probs))
	}
	sum := 0.0
	for _, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("probability %v out of range", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("probabilities sum to %v", sum)
	}
	return nil
}
