// Package config resolves CLI settings from flags, PATCHPLAN_* environment
// variables and an optional YAML config file, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dd0wney/cluso-patchplan/pkg/logging"
	"github.com/dd0wney/cluso-patchplan/pkg/planner"
	"github.com/dd0wney/cluso-patchplan/pkg/validation"
)

// EnvPrefix is prepended to every environment variable, e.g. PATCHPLAN_BATCH_SIZE
const EnvPrefix = "PATCHPLAN"

// Config keys. Flags use the same names with dashes instead of underscores.
const (
	KeyScenario       = "scenario"
	KeyStrategy       = "strategy"
	KeyStrategies     = "strategies"
	KeyPlan           = "plan"
	KeyOut            = "out"
	KeySeed           = "seed"
	KeyBatchSize      = "batch_size"
	KeyParallelism    = "parallelism"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyCompressEvents = "compress_events"
	KeyMetricsFile    = "metrics_file"
)

// Config holds everything a command needs after flags, environment and
// config file have been merged.
type Config struct {
	Scenario   string
	Strategy   string
	Strategies []string
	// Plan replays a previously written plan.json instead of generating one
	Plan string
	Out  string
	// Seed overrides the scenario seed when set
	Seed           *int64
	BatchSize      int
	Parallelism    int
	LogLevel       string
	LogFormat      string
	CompressEvents bool
	MetricsFile    string
}

// New returns a viper instance with defaults and environment binding
// applied. Each command invocation gets its own instance.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyBatchSize, planner.DefaultBatchSize)
	v.SetDefault(KeyParallelism, runtime.GOMAXPROCS(0))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, string(logging.FormatText))
	v.SetDefault(KeyStrategies, planner.Names())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds every flag in the set to the key of the same name with
// dashes replaced by underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	return bindErr
}

// Load reads the optional config file and builds the Config. The result is
// not validated; commands call Validate or ValidateFor with their own needs.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Scenario:       v.GetString(KeyScenario),
		Strategy:       v.GetString(KeyStrategy),
		Strategies:     splitList(v.GetStringSlice(KeyStrategies)),
		Plan:           v.GetString(KeyPlan),
		Out:            v.GetString(KeyOut),
		BatchSize:      v.GetInt(KeyBatchSize),
		Parallelism:    v.GetInt(KeyParallelism),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:      strings.ToLower(v.GetString(KeyLogFormat)),
		CompressEvents: v.GetBool(KeyCompressEvents),
		MetricsFile:    v.GetString(KeyMetricsFile),
	}
	// IsSet ignores flag defaults, so an untouched --seed leaves the
	// scenario seed in charge
	if v.IsSet(KeySeed) {
		seed := v.GetInt64(KeySeed)
		cfg.Seed = &seed
	}
	return cfg, nil
}

// splitList accepts both repeated values and a single comma separated
// string, which is how list settings arrive from the environment.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Logger builds the logger described by the config, writing to stderr.
func (c *Config) Logger() logging.Logger {
	level := logging.ParseLevel(c.LogLevel)
	return logging.New(os.Stderr, level, logging.Format(c.LogFormat))
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	return c.validator().Validate()
}

// ValidateFor checks the shared settings plus what the named command needs.
func (c *Config) ValidateFor(command string) error {
	cv := c.validator()
	switch command {
	case "simulate":
		cv.Required("Scenario", c.Scenario).
			Required("Out", c.Out).
			When(c.Plan == "", func(v *validation.ConfigValidator) {
				v.OneOf("Strategy", c.Strategy, planner.Names())
			})
	case "plan":
		cv.Required("Scenario", c.Scenario).
			OneOf("Strategy", c.Strategy, planner.Names())
	case "compare":
		cv.Required("Scenario", c.Scenario).
			Custom("Strategies", func() error {
				if len(c.Strategies) == 0 {
					return fmt.Errorf("at least one strategy is required")
				}
				return nil
			}).
			EachOneOf("Strategies", c.Strategies, planner.Names())
	}
	return cv.Validate()
}

func (c *Config) validator() *validation.ConfigValidator {
	return validation.NewConfigValidator("Config").
		Custom("BatchSize", func() error { return validation.ValidateBatchSize(c.BatchSize) }).
		Positive("Parallelism", c.Parallelism).
		OneOf("LogLevel", c.LogLevel, logging.LevelNames()).
		OneOf("LogFormat", c.LogFormat, logging.FormatNames())
}
