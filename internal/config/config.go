// Package config loads the node's YAML configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeConfig holds the settings needed to start a node.
type NodeConfig struct {
	Name      string `yaml:"name"`
	MasterURI string `yaml:"master_uri"`
	Debug     bool   `yaml:"debug"`
	LogDir    string `yaml:"log_dir"`
}

// Load reads and parses a NodeConfig from filename, applying defaults for
// zero-valued fields.
func Load(filename string) (*NodeConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", filename, err)
	}

	var cfg NodeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", filename, err)
	}

	applyDefaults(&cfg)

	if cfg.Name == "" {
		return nil, fmt.Errorf("config: %s: name is required", filename)
	}

	return &cfg, nil
}

func applyDefaults(cfg *NodeConfig) {
	if cfg.LogDir == "" {
		cfg.LogDir = "./logs"
	}
	if os.Getenv("ROSNODE_DEBUG") == "true" {
		cfg.Debug = true
	}
}
