package dune

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DatasetConfig describes one Dune-backed dataset directory: the remote query
// to run and which parameter names carry the date window.
type DatasetConfig struct {
	QueryID       string `yaml:"dune_query_id_param"`
	ParamStartKey string `yaml:"param_start_key"`
	ParamEndKey   string `yaml:"param_end_key"`
}

// LoadDatasetConfig reads config.yml from a dataset directory and applies
// parameter-key defaults.
func LoadDatasetConfig(dir string) (DatasetConfig, error) {
	path := filepath.Join(dir, "config.yml")
	content, err := os.ReadFile(path)
	if err != nil {
		return DatasetConfig{}, fmt.Errorf("load dataset config %s: %w", path, err)
	}

	var cfg DatasetConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return DatasetConfig{}, fmt.Errorf("parse dataset config %s: %w", path, err)
	}

	if cfg.QueryID == "" {
		return DatasetConfig{}, fmt.Errorf("dataset config %s: dune_query_id_param is required", path)
	}
	if cfg.ParamStartKey == "" {
		cfg.ParamStartKey = "start_date"
	}
	if cfg.ParamEndKey == "" {
		cfg.ParamEndKey = "end_date"
	}

	return cfg, nil
}
