package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application's configuration.
type Config struct {
	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`
	Detector struct {
		URL string `yaml:"url"`
	} `yaml:"detector"`
	FaceMatcher struct {
		URL      string `yaml:"url"`
		FacesDir string `yaml:"faces_dir"`
	} `yaml:"face_matcher"`
	Validation struct {
		ConfidenceThreshold  float64  `yaml:"confidence_threshold"`
		FaceTolerance        float64  `yaml:"face_tolerance"`
		ViolatingObjects     []string `yaml:"violating_objects"`
		RequireSingleDefault bool     `yaml:"require_single_default"`
		Workers              int      `yaml:"workers"`
	} `yaml:"validation"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// LoadConfig reads configuration from the specified YAML file and fills
// in defaults for the validation knobs left unset.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	if config.Validation.ConfidenceThreshold == 0 {
		config.Validation.ConfidenceThreshold = 0.4
	}
	if config.Validation.FaceTolerance == 0 {
		config.Validation.FaceTolerance = 0.45
	}
	if len(config.Validation.ViolatingObjects) == 0 {
		config.Validation.ViolatingObjects = []string{"cell phone", "camera", "laptop", "tv", "monitor"}
	}
	if config.Validation.Workers == 0 {
		config.Validation.Workers = 4
	}
	if config.Server.Port == "" {
		config.Server.Port = ":8000"
	}

	return config, nil
}
