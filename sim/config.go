package sim

import (
	"fmt"

	"github.com/baldhumanity/neat-creatures/neat"
	"github.com/baldhumanity/neat-creatures/physics"
	"gopkg.in/ini.v1"
)

// Config is the complete configuration of a run.
type Config struct {
	NEAT     *neat.Config
	Physics  *physics.Params
	Creature CreatureConfig
	Runtime  RuntimeConfig
}

// CreatureConfig holds scoring and death parameters of a creature.
type CreatureConfig struct {
	TargetDistance      float64 `ini:"target_distance"`      // Mean displacement that scores 1.0
	ImprovementEpsilon  float64 `ini:"improvement_epsilon"`  // Score gain that counts as progress
	MaxStaleness        int     `ini:"max_staleness"`        // AI ticks without progress before death
	FlatHeight          float64 `ini:"flat_height"`          // Mean node height below which the body has collapsed
	KillOnRegression    bool    `ini:"kill_on_regression"`   // Also die when walking backwards
	RegressionTolerance float64 `ini:"regression_tolerance"` // Backwards displacement allowed before death
}

// RuntimeConfig holds parameters of the simulation driver.
type RuntimeConfig struct {
	AIIntervalMillis int64 `ini:"ai_interval_ms"` // Cadence of brain evaluation
	Workers          int   `ini:"workers"`        // Goroutines stepping creatures; 1 steps sequentially
}

// DefaultConfig returns the canonical configuration.
func DefaultConfig() *Config {
	return &Config{
		NEAT:    neat.DefaultConfig(),
		Physics: physics.DefaultParams(),
		Creature: CreatureConfig{
			TargetDistance:      100,
			ImprovementEpsilon:  0.01,
			MaxStaleness:        500,
			FlatHeight:          2.1,
			KillOnRegression:    false,
			RegressionTolerance: 5,
		},
		Runtime: RuntimeConfig{
			AIIntervalMillis: 100,
			Workers:          1,
		},
	}
}

// LoadConfig loads a run configuration from one INI file. NEAT sections are
// handled by neat.MapConfig; [Physics], [Creature] and [Runtime] are mapped
// here. Keys that are absent keep their default value.
func LoadConfig(filePath string) (*Config, error) {
	file, err := ini.LoadSources(neat.LoadOptions, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	neatConfig, err := neat.MapConfig(file)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	config.NEAT = neatConfig

	sections := []struct {
		name   string
		target interface{}
	}{
		{"Physics", config.Physics},
		{"Creature", &config.Creature},
		{"Runtime", &config.Runtime},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks every part of the configuration.
func (c *Config) Validate() error {
	if c.NEAT == nil || c.Physics == nil {
		return fmt.Errorf("config error: missing NEAT or physics section")
	}
	if err := c.NEAT.Validate(); err != nil {
		return err
	}
	if err := c.Physics.Validate(); err != nil {
		return err
	}
	if c.Creature.TargetDistance <= 0 {
		return fmt.Errorf("config error: target_distance must be positive")
	}
	if c.Creature.ImprovementEpsilon < 0 {
		return fmt.Errorf("config error: improvement_epsilon cannot be negative")
	}
	if c.Creature.MaxStaleness <= 0 {
		return fmt.Errorf("config error: max_staleness must be positive")
	}
	if c.Creature.RegressionTolerance < 0 {
		return fmt.Errorf("config error: regression_tolerance cannot be negative")
	}
	if c.Runtime.AIIntervalMillis <= 0 {
		return fmt.Errorf("config error: ai_interval_ms must be positive")
	}
	if c.Runtime.Workers < 1 {
		return fmt.Errorf("config error: workers must be at least 1")
	}
	return nil
}
