package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glucoseTree splits on GlucoseLevel (column 3) and then BMI (column 1).
func glucoseTree(t *testing.T) *DecisionTree {
	t.Helper()
	tree, err := NewDecisionTree(7, []TreeNode{
		{FeatureIdx: 3, Threshold: 125, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, ClassLabel: 0, Probabilities: []float64{0.9, 0.1}},
		{FeatureIdx: 1, Threshold: 30, LeftChild: 3, RightChild: 4},
		{IsLeaf: true, ClassLabel: 1, Probabilities: []float64{0.3, 0.7}},
		{IsLeaf: true, ClassLabel: 1},
	})
	require.NoError(t, err)
	return tree
}

func TestDecisionTreePredict(t *testing.T) {
	tree := glucoseTree(t)

	label, err := tree.Predict(FeatureVector{45, 28, 130, 100, 80, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	label, err = tree.Predict(FeatureVector{45, 28, 130, 140, 80, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
	probs, err := tree.PredictProba(FeatureVector{45, 28, 130, 140, 80, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.7}, probs)

	probs, err = tree.PredictProba(FeatureVector{45, 35, 130, 140, 80, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, probs)
}

func TestDecisionTreeRejectsWrongLength(t *testing.T) {
	tree := glucoseTree(t)
	_, err := tree.Predict(FeatureVector{1, 2, 3})
	assert.ErrorIs(t, err, ErrFeatureCount)
	_, err = tree.PredictProba(nil)
	assert.ErrorIs(t, err, ErrFeatureCount)
}

func TestDecisionTreeUntrained(t *testing.T) {
	_, err := (&DecisionTree{}).Predict(FeatureVector{1})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestDecisionTreeCheck(t *testing.T) {
	cases := map[string][]TreeNode{
		"empty":          nil,
		"bad feature":    {{FeatureIdx: 9, LeftChild: 1, RightChild: 1}, {IsLeaf: true}},
		"bad child":      {{FeatureIdx: 0, LeftChild: 1, RightChild: 5}, {IsLeaf: true}},
		"self reference": {{FeatureIdx: 0, LeftChild: 0, RightChild: 0}},
		"label":          {{IsLeaf: true, ClassLabel: 2}},
		"proba length":   {{IsLeaf: true, Probabilities: []float64{1}}},
		"proba sum":      {{IsLeaf: true, Probabilities: []float64{0.6, 0.6}}},
		"label mismatch": {{IsLeaf: true, ClassLabel: 0, Probabilities: []float64{0.3, 0.7}}},
	}
	for name, nodes := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewDecisionTree(7, nodes)
			assert.Error(t, err)
		})
	}
}

func TestDecisionTreeAcceptsTiedLeaf(t *testing.T) {
	for _, label := range []int{0, 1} {
		_, err := NewDecisionTree(7, []TreeNode{{IsLeaf: true, ClassLabel: label, Probabilities: []float64{0.5, 0.5}}})
		assert.NoError(t, err, "label %d", label)
	}
}

func TestDecisionTreeSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, glucoseTree(t).Save(path))

	loaded := &DecisionTree{}
	require.NoError(t, loaded.Load(path))
	label, err := loaded.Predict(FeatureVector{45, 28, 130, 140, 80, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestDecisionTreeLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"feature_count":7,"nodes":[{"is_leaf":false,"feature_idx":0,"left_child":4,"right_child":1}]}`), 0o600))
	assert.Error(t, (&DecisionTree{}).Load(path))

	require.NoError(t, os.WriteFile(path, []byte(`not json`), 0o600))
	assert.Error(t, (&DecisionTree{}).Load(path))
}
