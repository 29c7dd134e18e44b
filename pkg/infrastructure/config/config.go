package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/replenish/pkg/application/services/forecast"
	"github.com/vsinha/replenish/pkg/application/services/planning"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/services"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "REPLENISH_"

// Settings is the file and environment form of the planning configuration
type Settings struct {
	HorizonDays          int     `yaml:"horizon_days"`
	TransferHorizonDays  int     `yaml:"transfer_horizon_days"`
	CriticalFraction     float64 `yaml:"critical_fraction"`
	ReplenishBuffer      float64 `yaml:"replenish_buffer"`
	Rounding             string  `yaml:"rounding"`
	Strategy             string  `yaml:"strategy"`
	MovingAverageWindow  int     `yaml:"moving_average_window"`
	ShortageMode         string  `yaml:"shortage_mode"`
	Workers              int     `yaml:"workers"`
	IncludeHealthy       bool    `yaml:"include_healthy"`
	DispatchHighFraction float64 `yaml:"dispatch_high_fraction"`
	CostRatio            float64 `yaml:"cost_ratio"`
	MinHistoryPoints     int     `yaml:"min_history_points"`
	MinSeasonalPoints    int     `yaml:"min_seasonal_points"`
	LogLevel             string  `yaml:"log_level"`
}

// Default returns the built-in settings
func Default() *Settings {
	return &Settings{
		HorizonDays:          30,
		TransferHorizonDays:  7,
		CriticalFraction:     0.2,
		ReplenishBuffer:      0.1,
		Rounding:             services.Floor.String(),
		Strategy:             forecast.SeasonalStrategy.String(),
		MovingAverageWindow:  30,
		ShortageMode:         services.ProjectedMode.String(),
		Workers:              runtime.NumCPU(),
		IncludeHealthy:       true,
		DispatchHighFraction: 0.1,
		CostRatio:            0.7,
		MinHistoryPoints:     1,
		MinSeasonalPoints:    14,
		LogLevel:             "info",
	}
}

// Load builds settings from the defaults, then the YAML file at path (if any), then
// REPLENISH_* environment variables, and validates the result
func Load(path string) (*Settings, error) {
	settings := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := settings.Decode(file); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Decode overlays the YAML document read from r. Unknown keys are rejected.
func (s *Settings) Decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", entities.ErrInvalidConfiguration, err)
	}
	return nil
}

// ApplyEnv overlays REPLENISH_* variables found through lookup
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	env := envReader{lookup: lookup}

	env.readInt("HORIZON_DAYS", &s.HorizonDays)
	env.readInt("TRANSFER_HORIZON_DAYS", &s.TransferHorizonDays)
	env.readFloat("CRITICAL_FRACTION", &s.CriticalFraction)
	env.readFloat("REPLENISH_BUFFER", &s.ReplenishBuffer)
	env.readString("ROUNDING", &s.Rounding)
	env.readString("STRATEGY", &s.Strategy)
	env.readInt("MOVING_AVERAGE_WINDOW", &s.MovingAverageWindow)
	env.readString("SHORTAGE_MODE", &s.ShortageMode)
	env.readInt("WORKERS", &s.Workers)
	env.readBool("INCLUDE_HEALTHY", &s.IncludeHealthy)
	env.readFloat("DISPATCH_HIGH_FRACTION", &s.DispatchHighFraction)
	env.readFloat("COST_RATIO", &s.CostRatio)
	env.readInt("MIN_HISTORY_POINTS", &s.MinHistoryPoints)
	env.readInt("MIN_SEASONAL_POINTS", &s.MinSeasonalPoints)
	env.readString("LOG_LEVEL", &s.LogLevel)

	return env.err
}

// Validate rejects settings that cannot be planned with
func (s *Settings) Validate() error {
	_, err := s.Planning()
	return err
}

// Planning converts the settings into a validated planning configuration
func (s *Settings) Planning() (planning.Config, error) {
	rounding, err := services.ParseRoundingRule(s.Rounding)
	if err != nil {
		return planning.Config{}, err
	}
	strategy, err := forecast.ParseStrategy(s.Strategy)
	if err != nil {
		return planning.Config{}, err
	}
	mode, err := services.ParseShortageMode(s.ShortageMode)
	if err != nil {
		return planning.Config{}, err
	}

	config := planning.Config{
		HorizonDays:         s.HorizonDays,
		TransferHorizonDays: s.TransferHorizonDays,
		Workers:             s.Workers,
		IncludeHealthy:      s.IncludeHealthy,
		MinHistoryPoints:    s.MinHistoryPoints,
		Forecast: forecast.Config{
			Strategy:            strategy,
			MovingAverageWindow: s.MovingAverageWindow,
			MinSeasonalPoints:   s.MinSeasonalPoints,
		},
		Policy: services.ShortagePolicy{
			CriticalFraction: s.CriticalFraction,
			ReplenishBuffer:  s.ReplenishBuffer,
			Mode:             mode,
		},
		Rounding:             rounding,
		DispatchHighFraction: s.DispatchHighFraction,
		CostRatio:            decimal.NewFromFloat(s.CostRatio),
	}

	if err := config.Validate(); err != nil {
		return planning.Config{}, err
	}
	return config, nil
}

// envReader parses environment overrides and keeps the first error
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	value, ok := e.lookup(EnvPrefix + key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func (e *envReader) fail(key, value string, err error) {
	e.err = fmt.Errorf("%w: %s%s=%q: %v", entities.ErrInvalidConfiguration, EnvPrefix, key, value, err)
}

func (e *envReader) readString(key string, target *string) {
	if value, ok := e.get(key); ok {
		*target = value
	}
}

func (e *envReader) readInt(key string, target *int) {
	value, ok := e.get(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*target = parsed
}

func (e *envReader) readFloat(key string, target *float64) {
	value, ok := e.get(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*target = parsed
}

func (e *envReader) readBool(key string, target *bool) {
	value, ok := e.get(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*target = parsed
}
