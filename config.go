package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apihttp "diabetesapi/http"
	"diabetesapi/logging"
	"diabetesapi/ml"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP  apihttp.ServerConfig `yaml:"http"`
	Model ModelConfig          `yaml:"model"`
	Cache struct {
		Size int `yaml:"size" validate:"gte=0"`
	} `yaml:"cache"`
	Log logging.Config `yaml:"log"`
}

type ModelConfig struct {
	Type  string `yaml:"type" validate:"required,oneof=decision_tree logistic_regression"`
	Path  string `yaml:"path" validate:"required"`
	Watch bool   `yaml:"watch"`
}

func defaultConfig() *Config {
	config := &Config{
		HTTP: apihttp.DefaultServerConfig(),
		Model: ModelConfig{
			Type: ml.ModelDecisionTree,
			Path: "trained_model.json",
		},
		Log: logging.Config{
			Level:      "info",
			Encoding:   "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
	config.Cache.Size = 1024
	return config
}

// loadConfig reads path over the defaults. A missing file is only an error
// when required is set. Relative model and log paths are resolved against
// the config file's directory.
func loadConfig(path string, required bool) (*Config, error) {
	config := defaultConfig()

	file, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !required:
		return config, validateConfig(config)
	case err != nil:
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if config.Model.Path != "" && !filepath.IsAbs(config.Model.Path) {
		config.Model.Path = filepath.Join(dir, config.Model.Path)
	}
	if config.Log.File != "" && !filepath.IsAbs(config.Log.File) {
		config.Log.File = filepath.Join(dir, config.Log.File)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func validateConfig(config *Config) error {
	return validator.New().Struct(config)
}
