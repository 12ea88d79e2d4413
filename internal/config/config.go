// Package config loads simulation configuration from defaults, an optional
// YAML file, and CIRCSIM_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/talgya/circulation/internal/agents"
	"github.com/talgya/circulation/internal/economy"
	"github.com/talgya/circulation/internal/engine"
)

// Preset names.
const (
	PresetCirculation = "circulation"
	PresetConsumption = "consumption"
	PresetGenerated   = "generated"
)

// Config is the complete run configuration.
type Config struct {
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Population PopulationConfig `mapstructure:"population" yaml:"population"`
	Goods      GoodsConfig      `mapstructure:"goods"      yaml:"goods"`
	Shocks     []ShockConfig    `mapstructure:"shocks"     yaml:"shocks"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Output     OutputConfig     `mapstructure:"output"     yaml:"output"`
}

// SimulationConfig selects the population and run length.
type SimulationConfig struct {
	Preset string `mapstructure:"preset" yaml:"preset"` // "circulation", "consumption", "generated"
	Rounds uint64 `mapstructure:"rounds" yaml:"rounds"`
	Seed   int64  `mapstructure:"seed"   yaml:"seed"`
}

// PopulationConfig controls the generated preset.
type PopulationConfig struct {
	Count              int     `mapstructure:"count"                yaml:"count"`
	StartIncome        float64 `mapstructure:"start_income"         yaml:"start_income"`
	MinProductivity    float64 `mapstructure:"min_productivity"     yaml:"min_productivity"`
	MaxProductivity    float64 `mapstructure:"max_productivity"     yaml:"max_productivity"`
	MinConsumptionRate float64 `mapstructure:"min_consumption_rate" yaml:"min_consumption_rate"`
	MaxConsumptionRate float64 `mapstructure:"max_consumption_rate" yaml:"max_consumption_rate"`
	MaxSavingIncomes   float64 `mapstructure:"max_saving_incomes"   yaml:"max_saving_incomes"`
	MaxDebtIncomes     float64 `mapstructure:"max_debt_incomes"     yaml:"max_debt_incomes"`
	Frequency          float64 `mapstructure:"frequency"            yaml:"frequency"`
}

// GoodsConfig enables the goods economy and sets reference prices.
type GoodsConfig struct {
	Enabled bool               `mapstructure:"enabled" yaml:"enabled"`
	Prices  map[string]float64 `mapstructure:"prices"  yaml:"prices"` // good name → reference price
}

// ShockConfig is one scheduled shock.
type ShockConfig struct {
	Round       uint64   `mapstructure:"round"       yaml:"round"`
	Kind        string   `mapstructure:"kind"        yaml:"kind"`
	Value       float64  `mapstructure:"value"       yaml:"value"`
	Agents      []uint64 `mapstructure:"agents"      yaml:"agents,omitempty"`
	Description string   `mapstructure:"description" yaml:"description,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // "debug", "info", "warn", "error"
}

// OutputConfig selects the report sinks.
type OutputConfig struct {
	Format      string `mapstructure:"format"       yaml:"format"`       // "text", "yaml", "none"
	DBPath      string `mapstructure:"db_path"      yaml:"db_path"`      // SQLite report store, empty disables
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"` // Prometheus textfile, empty disables
}

// Load reads configuration. path may be empty, in which case
// ./circsim.yaml is used when present. Defaults come from the selected
// preset; environment variables override the file, e.g.
// CIRCSIM_SIMULATION_ROUNDS=20.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("simulation.preset", PresetCirculation)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("circsim")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CIRCSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	preset, err := Preset(v.GetString("simulation.preset"))
	if err != nil {
		return nil, err
	}
	setDefaults(v, preset)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("simulation.rounds", def.Simulation.Rounds)
	v.SetDefault("simulation.seed", def.Simulation.Seed)

	v.SetDefault("population.count", def.Population.Count)
	v.SetDefault("population.start_income", def.Population.StartIncome)
	v.SetDefault("population.min_productivity", def.Population.MinProductivity)
	v.SetDefault("population.max_productivity", def.Population.MaxProductivity)
	v.SetDefault("population.min_consumption_rate", def.Population.MinConsumptionRate)
	v.SetDefault("population.max_consumption_rate", def.Population.MaxConsumptionRate)
	v.SetDefault("population.max_saving_incomes", def.Population.MaxSavingIncomes)
	v.SetDefault("population.max_debt_incomes", def.Population.MaxDebtIncomes)
	v.SetDefault("population.frequency", def.Population.Frequency)

	v.SetDefault("goods.enabled", def.Goods.Enabled)
	prices := make(map[string]any, len(def.Goods.Prices))
	for good, p := range def.Goods.Prices {
		prices[good] = p
	}
	v.SetDefault("goods.prices", prices)

	shocks := make([]map[string]any, 0, len(def.Shocks))
	for _, sh := range def.Shocks {
		shocks = append(shocks, map[string]any{
			"round":       sh.Round,
			"kind":        sh.Kind,
			"value":       sh.Value,
			"description": sh.Description,
		})
	}
	v.SetDefault("shocks", shocks)

	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.db_path", def.Output.DBPath)
	v.SetDefault("output.metrics_file", def.Output.MetricsFile)
}

// Default returns the circulation preset: nine rounds with credit
// withdrawn after round five.
func Default() Config {
	pop := agents.DefaultPopulationConfig()
	return Config{
		Simulation: SimulationConfig{Preset: PresetCirculation, Rounds: 9, Seed: 42},
		Population: PopulationConfig{
			Count:              pop.Count,
			StartIncome:        pop.StartIncome,
			MinProductivity:    pop.MinProductivity,
			MaxProductivity:    pop.MaxProductivity,
			MinConsumptionRate: pop.MinConsumptionRate,
			MaxConsumptionRate: pop.MaxConsumptionRate,
			MaxSavingIncomes:   pop.MaxSavingIncomes,
			MaxDebtIncomes:     pop.MaxDebtIncomes,
			Frequency:          pop.Frequency,
		},
		Shocks: []ShockConfig{{
			Round:       6,
			Kind:        string(engine.ShockMaxDebt),
			Value:       0,
			Description: "credit crunch: every debt cap withdrawn",
		}},
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Format: "text"},
	}
}

// Preset returns the default configuration for a named preset.
func Preset(name string) (Config, error) {
	cfg := Default()
	switch name {
	case PresetCirculation:
	case PresetConsumption:
		cfg.Simulation.Preset = PresetConsumption
		cfg.Simulation.Rounds = 20
		cfg.Goods = GoodsConfig{Enabled: true, Prices: map[string]float64{"WATER": 1, "FOOD": 1}}
		cfg.Shocks = nil
	case PresetGenerated:
		cfg.Simulation.Preset = PresetGenerated
		cfg.Simulation.Rounds = 30
		cfg.Goods = GoodsConfig{Enabled: true, Prices: map[string]float64{"WATER": 1, "FOOD": 1}}
		cfg.Shocks = []ShockConfig{{
			Round:       15,
			Kind:        string(engine.ShockMaxDebt),
			Value:       0,
			Description: "credit crunch: every debt cap withdrawn",
		}}
	default:
		return Config{}, fmt.Errorf("unknown preset %q", name)
	}
	return cfg, nil
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	switch c.Simulation.Preset {
	case PresetCirculation, PresetConsumption, PresetGenerated:
	default:
		return fmt.Errorf("unknown preset %q", c.Simulation.Preset)
	}
	if c.Simulation.Preset == PresetGenerated && c.Population.Count <= 0 {
		return fmt.Errorf("population.count must be positive, got %d", c.Population.Count)
	}
	p := c.Population
	if p.StartIncome < 0 {
		return fmt.Errorf("population.start_income must not be negative, got %g", p.StartIncome)
	}
	// Zero productivity everywhere leaves no aggregate supply to price.
	if p.MinProductivity < 0 || p.MaxProductivity <= 0 || p.MinProductivity > p.MaxProductivity {
		return fmt.Errorf("productivity range [%g, %g] must be non-negative with a positive maximum",
			p.MinProductivity, p.MaxProductivity)
	}
	if p.MaxSavingIncomes < 0 || p.MaxDebtIncomes < 0 {
		return fmt.Errorf("max_saving_incomes %g and max_debt_incomes %g must not be negative",
			p.MaxSavingIncomes, p.MaxDebtIncomes)
	}
	if c.Population.MinConsumptionRate < 0 || c.Population.MaxConsumptionRate > 1 ||
		c.Population.MinConsumptionRate > c.Population.MaxConsumptionRate {
		return fmt.Errorf("consumption rate range [%g, %g] not within [0, 1]",
			c.Population.MinConsumptionRate, c.Population.MaxConsumptionRate)
	}
	for name := range c.Goods.Prices {
		if _, ok := agents.GoodTypeFromString(strings.ToUpper(name)); !ok {
			return fmt.Errorf("unknown good %q in goods.prices", name)
		}
	}
	if _, err := c.ShockSchedule(); err != nil {
		return err
	}
	switch c.Output.Format {
	case "text", "yaml", "none":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// ShockSchedule converts the configured shocks.
func (c *Config) ShockSchedule() (engine.ShockSchedule, error) {
	schedule := make(engine.ShockSchedule, 0, len(c.Shocks))
	for i, sc := range c.Shocks {
		kind, err := engine.ParseShockKind(sc.Kind)
		if err != nil {
			return nil, fmt.Errorf("shocks[%d]: %w", i, err)
		}
		if sc.Round == 0 {
			return nil, fmt.Errorf("shocks[%d]: round must be at least 1", i)
		}
		ids := make([]agents.AgentID, 0, len(sc.Agents))
		for _, id := range sc.Agents {
			ids = append(ids, agents.AgentID(id))
		}
		schedule = append(schedule, engine.Shock{
			Round:       sc.Round,
			Kind:        kind,
			Value:       sc.Value,
			Agents:      ids,
			Description: sc.Description,
		})
	}
	return schedule.Sorted(), nil
}

// GoodPrices converts configured reference prices.
func (c *Config) GoodPrices() map[agents.GoodType]float64 {
	prices := make(map[agents.GoodType]float64, len(c.Goods.Prices))
	for name, p := range c.Goods.Prices {
		if good, ok := agents.GoodTypeFromString(strings.ToUpper(name)); ok {
			prices[good] = p
		}
	}
	return prices
}

// AgentPopulation converts the generated-population settings.
func (c *Config) AgentPopulation() agents.PopulationConfig {
	p := c.Population
	return agents.PopulationConfig{
		Count:              p.Count,
		StartIncome:        p.StartIncome,
		MinProductivity:    p.MinProductivity,
		MaxProductivity:    p.MaxProductivity,
		MinConsumptionRate: p.MinConsumptionRate,
		MaxConsumptionRate: p.MaxConsumptionRate,
		MaxSavingIncomes:   p.MaxSavingIncomes,
		MaxDebtIncomes:     p.MaxDebtIncomes,
		Frequency:          p.Frequency,
	}
}

// LogLevel parses the configured level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// NewSimulation spawns the configured population and wires the simulation.
func (c *Config) NewSimulation() (*engine.Simulation, error) {
	shocks, err := c.ShockSchedule()
	if err != nil {
		return nil, err
	}

	spawner := agents.NewSpawner(c.Simulation.Seed)
	var population []*agents.Agent
	switch c.Simulation.Preset {
	case PresetCirculation:
		population = spawner.SpawnCirculation()
	case PresetConsumption:
		population = spawner.SpawnConsumption()
	case PresetGenerated:
		population = spawner.SpawnPopulation(c.AgentPopulation())
	default:
		return nil, fmt.Errorf("unknown preset %q", c.Simulation.Preset)
	}

	opts := engine.Options{Shocks: shocks}
	if c.Goods.Enabled {
		opts.Market = economy.NewMarket(c.GoodPrices())
	}
	return engine.NewSimulation(population, opts), nil
}
