package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"diabetesapi/ml"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	config, err := loadConfig(filepath.Join(t.TempDir(), "config.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, 5000, config.HTTP.Port)
	assert.Equal(t, ml.ModelDecisionTree, config.Model.Type)
	assert.Equal(t, 1024, config.Cache.Size)

	_, err = loadConfig(filepath.Join(t.TempDir(), "config.yaml"), true)
	assert.Error(t, err)
}

func TestLoadConfigOverridesAndResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
http:
  port: 8081
  timeout: 10s
model:
  type: logistic_regression
  path: models/lr.json
  watch: true
cache:
  size: 0
log:
  level: debug
  file: logs/api.log
`)
	config, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, 8081, config.HTTP.Port)
	assert.Equal(t, 10*time.Second, config.HTTP.Timeout)
	assert.Equal(t, int64(64<<10), config.HTTP.MaxBodyBytes)
	assert.Equal(t, ml.ModelLogisticRegression, config.Model.Type)
	assert.Equal(t, filepath.Join(dir, "models", "lr.json"), config.Model.Path)
	assert.True(t, config.Model.Watch)
	assert.Equal(t, 0, config.Cache.Size)
	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, filepath.Join(dir, "logs", "api.log"), config.Log.File)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	for _, body := range []string{
		"model:\n  type: pickle\n",
		"cache:\n  size: -1\n",
		"log:\n  encoding: xml\n",
		"http:\n  port: 70000\n",
		"http: [",
	} {
		_, err := loadConfig(writeFile(t, dir, "config.yaml", body), true)
		assert.Error(t, err, body)
	}
}

const treeArtifact = `{"feature_count":7,"nodes":[
  {"feature_idx":3,"threshold":125,"left_child":1,"right_child":2},
  {"is_leaf":true,"class_label":0,"probabilities":[0.85,0.15]},
  {"is_leaf":true,"class_label":1,"probabilities":[0.3,0.7]}
]}`

func TestPredictCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "model.json", treeArtifact)
	configPath := writeFile(t, dir, "config.yaml", "model:\n  type: decision_tree\n  path: model.json\n")
	input := writeFile(t, dir, "payload.json",
		`{"Age":45,"BMI":28,"BloodPressure":130,"GlucoseLevel":140,"InsulinLevel":80,"FamilyHistory":1,"PhysicalActivity":0}`)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"predict", "--config", configPath, "--input", input})
	require.NoError(t, cmd.Execute())

	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, 1.0, result["prediction"])
	assert.Equal(t, 0.7, result["confidence"])
}

func TestPredictCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "config.yaml", "model:\n  type: decision_tree\n  path: absent.json\n")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"Age":45}`))
	cmd.SetArgs([]string{"predict", "--config", configPath})
	require.Error(t, cmd.Execute())

	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "missing_features", result["status"])
	assert.Len(t, result["missing_features"], 6)

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(
		`{"Age":45,"BMI":28,"BloodPressure":130,"GlucoseLevel":140,"InsulinLevel":80,"FamilyHistory":1,"PhysicalActivity":0}`))
	cmd.SetArgs([]string{"predict", "--config", configPath})
	require.Error(t, cmd.Execute())
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "model_not_loaded", result["status"])

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(`{"Age":45} {"Age":46}`))
	cmd.SetArgs([]string{"predict", "--config", configPath})
	require.Error(t, cmd.Execute())
	result = nil
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "no_data", result["status"])
}

func TestShippedArtifactsLoad(t *testing.T) {
	config, err := loadConfig("config.yaml", true)
	require.NoError(t, err)
	_, err = ml.LoadModel(config.Model.Type, config.Model.Path)
	require.NoError(t, err)
}
