package internal

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/haatos/gitbridge/internal/util"
)

type Configuration struct {
	DagID                 string  `yaml:"dag_id"`
	TriggerTimeoutSeconds int64   `yaml:"trigger_timeout_seconds"`
	KeyRetentionHours     int64   `yaml:"key_retention_hours"`
	SweepIntervalMinutes  int64   `yaml:"sweep_interval_minutes"`
	DefaultBranch         string  `yaml:"default_branch"`
	DefaultProjectName    string  `yaml:"default_project_name"`
	DefaultExperimentName string  `yaml:"default_experiment_name"`
	RateLimitPerSecond    float64 `yaml:"rate_limit_per_second"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		DagID:                 "kedro_pipeline",
		TriggerTimeoutSeconds: 30,
		KeyRetentionHours:     24,
		SweepIntervalMinutes:  30,
		DefaultBranch:         "main",
		DefaultProjectName:    "kedro_project",
		DefaultExperimentName: "kedro-pipeline",
		RateLimitPerSecond:    20,
	}
}

func (c *Configuration) TriggerTimeout() time.Duration {
	return time.Duration(c.TriggerTimeoutSeconds) * time.Second
}

func (c *Configuration) KeyRetention() time.Duration {
	return time.Duration(c.KeyRetentionHours) * time.Hour
}

func (c *Configuration) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// LoadConfiguration reads the tunables file at path. When the file does not
// exist the defaults are written to it. Fields missing from an existing file
// keep their default values.
func LoadConfiguration(path string) (*Configuration, error) {
	config := DefaultConfiguration()

	configFileExists, _ := util.PathExists(path)
	if !configFileExists {
		if err := WriteConfiguration(path, config); err != nil {
			return nil, err
		}
		return config, nil
	}

	configBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return nil, err
	}
	return config, nil
}

func WriteConfiguration(path string, config *Configuration) error {
	b, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
