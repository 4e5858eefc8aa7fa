package neat

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the NEAT algorithm.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize int   `ini:"pop_size"`
	Seed    int64 `ini:"seed"` // 0 means seed from the clock
}

// GenomeConfig holds parameters specific to the structure and mutation of brains.
type GenomeConfig struct {
	Layers            int     `ini:"num_layers"`         // Initial layer count, inputs at 0, outputs at Layers-1
	InitialConnection string  `ini:"initial_connection"` // "full" or "unconnected"
	ActivationDefault string  `ini:"activation_default"`
	SigmoidSteepness  float64 `ini:"sigmoid_steepness"`

	WeightMutateRate  float64 `ini:"weight_mutate_rate"`  // Chance that all weights are perturbed during Mutate
	WeightReplaceRate float64 `ini:"weight_replace_rate"` // Per-connection chance of a fresh uniform weight
	WeightMutatePower float64 `ini:"weight_mutate_power"` // Stdev of Gaussian weight perturbation
	ConnAddProb       float64 `ini:"conn_add_prob"`
	NodeAddProb       float64 `ini:"node_add_prob"`

	DisableInheritRate float64 `ini:"disable_inherit_rate"` // Chance a matching gene stays disabled if either parent disabled it

	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	CompatibilityNormalizerOffset    int     `ini:"compatibility_normalizer_offset"`
	NoMatchWeightDifference          float64 `ini:"no_match_weight_difference"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	AsexualRate float64 `ini:"asexual_rate"` // Chance a child is a plain clone of one parent
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	MaxStagnation int `ini:"max_stagnation"` // Generations without improvement before a species is removed
}

// DefaultConfig returns the canonical parameter set.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize: 100,
		},
		Genome: GenomeConfig{
			Layers:                           4,
			InitialConnection:                "full",
			ActivationDefault:                "sigmoid",
			SigmoidSteepness:                 DefaultSigmoidSteepness,
			WeightMutateRate:                 0.8,
			WeightReplaceRate:                0.1,
			WeightMutatePower:                0.02,
			ConnAddProb:                      0.05,
			NodeAddProb:                      0.01,
			DisableInheritRate:               0.75,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.5,
			CompatibilityNormalizerOffset:    20,
			NoMatchWeightDifference:          100,
		},
		Reproduction: ReproductionConfig{
			AsexualRate: 0.25,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Stagnation: StagnationConfig{
			MaxStagnation: 15,
		},
	}
}

// LoadOptions are the ini options used for every configuration file.
var LoadOptions = ini.LoadOptions{
	IgnoreInlineComment:         true, // Allow # comments starting with # or ;
	UnescapeValueCommentSymbols: true, // If # or ; appear in value, treat as value
}

// LoadConfig loads configuration parameters from an INI file on top of DefaultConfig.
func LoadConfig(filePath string) (*Config, error) {
	cfg, err := ini.LoadSources(LoadOptions, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}
	return MapConfig(cfg)
}

// MapConfig maps the NEAT sections of an already loaded INI file. Keys that
// are absent keep their default value.
func MapConfig(cfg *ini.File) (*Config, error) {
	config := DefaultConfig()

	sections := []struct {
		name   string
		target interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if !cfg.HasSection(s.name) {
			continue
		}
		if err := cfg.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	config.Genome.InitialConnection = cleanIniString(config.Genome.InitialConnection)
	config.Genome.ActivationDefault = cleanIniString(config.Genome.ActivationDefault)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks parameter ranges.
func (c *Config) Validate() error {
	g := &c.Genome
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if g.Layers < 2 {
		return fmt.Errorf("config error: num_layers must be at least 2")
	}
	switch strings.ToLower(g.InitialConnection) {
	case "full", "unconnected":
	default:
		return fmt.Errorf("config error: invalid initial_connection type '%s'", g.InitialConnection)
	}
	if _, err := GetActivation(g.ActivationDefault); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if g.SigmoidSteepness <= 0 {
		return fmt.Errorf("config error: sigmoid_steepness must be positive")
	}
	probs := map[string]float64{
		"weight_mutate_rate":   g.WeightMutateRate,
		"weight_replace_rate":  g.WeightReplaceRate,
		"conn_add_prob":        g.ConnAddProb,
		"node_add_prob":        g.NodeAddProb,
		"asexual_rate":         c.Reproduction.AsexualRate,
		"disable_inherit_rate": g.DisableInheritRate,
	}
	for name, p := range probs {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}
	if g.WeightMutatePower < 0 {
		return fmt.Errorf("config error: weight_mutate_power cannot be negative")
	}
	if g.CompatibilityDisjointCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_disjoint_coefficient cannot be negative")
	}
	if g.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility_weight_coefficient cannot be negative")
	}
	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return fmt.Errorf("config error: compatibility_threshold must be positive")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	// Remove comments starting with # or ;
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
