// Package config provides unified configuration loading for virusnet.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/virusnet/internal/epidemic"
	"gopkg.in/yaml.v3"
)

// Network kinds accepted by NetworkConfig.Kind.
const (
	NetworkRandom = "random"
	NetworkRing   = "ring"
	NetworkGEXF   = "gexf"
)

// VirusnetConfig contains all virusnet configuration settings.
type VirusnetConfig struct {
	// Model contains the population and transition probabilities.
	Model ModelConfig `json:"model" yaml:"model"`

	// Network selects where the contact graph comes from.
	Network NetworkConfig `json:"network" yaml:"network"`

	// Run contains driver settings.
	Run RunConfig `json:"run" yaml:"run"`

	// Logging contains settings for operational logging and step tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ModelConfig holds the construction-time parameters of a simulation.
type ModelConfig struct {
	// NumNodes is the population size for generated networks. Ignored when
	// the network is loaded from a file.
	NumNodes int `json:"num_nodes" yaml:"num_nodes"`

	// AvgNodeDegree sets the Erdős–Rényi edge probability avg/num_nodes.
	// Only used by the random network.
	AvgNodeDegree float64 `json:"avg_node_degree" yaml:"avg_node_degree"`

	// InitialOutbreakSize is the number of agents infected before step 0.
	// Values above the population size are clamped with a warning.
	InitialOutbreakSize int `json:"initial_outbreak_size" yaml:"initial_outbreak_size"`

	// Agent probabilities shared by every agent.
	epidemic.Params `yaml:",inline"`

	// Seed makes a run reproducible. Nil picks a time-based seed.
	Seed *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// NetworkConfig selects the contact graph.
type NetworkConfig struct {
	// Kind is "random" (default), "ring" or "gexf".
	Kind string `json:"kind" yaml:"kind"`

	// Path is the GEXF file for kind "gexf". Supports ${VAR} syntax.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// RunConfig configures the driver.
type RunConfig struct {
	// Steps is the number of steps to run after step 0.
	Steps int `json:"steps" yaml:"steps"`

	// DBPath is the SQLite run archive. Supports ${VAR} syntax; empty
	// means ~/.virusnet/runs.db.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoggingConfig configures virusnet's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug" or "trace".
	// "debug" and "trace" also write a steps.jsonl trace to TraceDir.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where steps.jsonl goes. Empty means ~/.virusnet/trace.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// Default returns a VirusnetConfig with the defaults of the NetLogo
// virus-on-a-network model.
func Default() *VirusnetConfig {
	return &VirusnetConfig{
		Model: ModelConfig{
			NumNodes:            10,
			AvgNodeDegree:       3,
			InitialOutbreakSize: 1,
			Params: epidemic.Params{
				SpreadChance:         0.15,
				CheckFrequency:       1.0,
				RecoveryChance:       0.1,
				GainResistanceChance: 1.0,
			},
		},
		Network: NetworkConfig{
			Kind: NetworkRandom,
		},
		Run: RunConfig{
			Steps: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// HomeDir returns ~/.virusnet.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".virusnet"), nil
}

// Load loads configuration and applies environment overrides.
// Order: defaults -> path (or ~/.virusnet/config.yaml when path is empty
// and that file exists) -> environment variables.
func Load(path string) (*VirusnetConfig, error) {
	config := Default()

	if path == "" {
		if dir, err := HomeDir(); err == nil {
			candidate := filepath.Join(dir, "config.yaml")
			if _, statErr := os.Stat(candidate); statErr == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file on top of the defaults.
func LoadFromFile(path string) (*VirusnetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Network.Path = expandEnvVars(config.Network.Path)
	config.Run.DBPath = expandEnvVars(config.Run.DBPath)
	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)

	return config, nil
}

// WriteYAML encodes the configuration as YAML.
func (c *VirusnetConfig) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// Validate checks that the configuration is valid. An outbreak larger than
// the population is not an error; the driver clamps it.
func (c *VirusnetConfig) Validate() error {
	if c.Model.NumNodes <= 0 {
		return fmt.Errorf("num_nodes must be positive, got %d", c.Model.NumNodes)
	}
	if c.Model.AvgNodeDegree < 0 {
		return fmt.Errorf("avg_node_degree must be non-negative, got %v", c.Model.AvgNodeDegree)
	}
	if c.Model.InitialOutbreakSize < 0 {
		return fmt.Errorf("initial_outbreak_size must be non-negative, got %d", c.Model.InitialOutbreakSize)
	}
	if err := c.Model.Params.Validate(); err != nil {
		return err
	}

	switch c.Network.Kind {
	case NetworkRandom, "":
	case NetworkRing:
		if c.Model.NumNodes < 3 {
			return fmt.Errorf("ring network needs num_nodes >= 3, got %d", c.Model.NumNodes)
		}
	case NetworkGEXF:
		if c.Network.Path == "" {
			return fmt.Errorf("gexf network requires network.path")
		}
	default:
		return fmt.Errorf("invalid network kind: %s (valid: random, ring, gexf)", c.Network.Kind)
	}

	if c.Run.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Run.Steps)
	}

	validLevels := map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies VIRUSNET_* environment variables to the config.
func applyEnvOverrides(config *VirusnetConfig) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"VIRUSNET_NUM_NODES", &config.Model.NumNodes},
		{"VIRUSNET_INITIAL_OUTBREAK_SIZE", &config.Model.InitialOutbreakSize},
		{"VIRUSNET_STEPS", &config.Run.Steps},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"VIRUSNET_AVG_NODE_DEGREE", &config.Model.AvgNodeDegree},
		{"VIRUSNET_SPREAD_CHANCE", &config.Model.SpreadChance},
		{"VIRUSNET_CHECK_FREQUENCY", &config.Model.CheckFrequency},
		{"VIRUSNET_RECOVERY_CHANCE", &config.Model.RecoveryChance},
		{"VIRUSNET_GAIN_RESISTANCE_CHANCE", &config.Model.GainResistanceChance},
	}
	for _, e := range floats {
		if v := os.Getenv(e.key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = f
		}
	}

	if v := os.Getenv("VIRUSNET_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("VIRUSNET_SEED: %w", err)
		}
		config.Model.Seed = &seed
	}

	if v := os.Getenv("VIRUSNET_NETWORK"); v != "" {
		config.Network.Kind = v
	}
	if v := os.Getenv("VIRUSNET_NETWORK_PATH"); v != "" {
		config.Network.Path = v
	}
	if v := os.Getenv("VIRUSNET_DB"); v != "" {
		config.Run.DBPath = v
	}
	if v := os.Getenv("VIRUSNET_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
