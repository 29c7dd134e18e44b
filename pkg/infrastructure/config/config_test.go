package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/application/services/forecast"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/services"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestDefault_IsValid(t *testing.T) {
	settings := Default()

	config, err := settings.Planning()
	require.NoError(t, err)

	assert.Equal(t, 30, config.HorizonDays)
	assert.Equal(t, 7, config.TransferHorizonDays)
	assert.Equal(t, 0.2, config.Policy.CriticalFraction)
	assert.Equal(t, 0.1, config.Policy.ReplenishBuffer)
	assert.Equal(t, services.Floor, config.Rounding)
	assert.Equal(t, forecast.SeasonalStrategy, config.Forecast.Strategy)
	assert.Equal(t, services.ProjectedMode, config.Policy.Mode)
	assert.Equal(t, "0.7", config.CostRatio.String())
}

func TestDecode(t *testing.T) {
	settings := Default()
	doc := `
horizon_days: 14
rounding: largest-remainder
strategy: moving-average
shortage_mode: stock
include_healthy: false
cost_ratio: 0.65
`
	require.NoError(t, settings.Decode(strings.NewReader(doc)))

	config, err := settings.Planning()
	require.NoError(t, err)
	assert.Equal(t, 14, config.HorizonDays)
	assert.Equal(t, services.LargestRemainder, config.Rounding)
	assert.Equal(t, forecast.MovingAverageStrategy, config.Forecast.Strategy)
	assert.Equal(t, services.StockMode, config.Policy.Mode)
	assert.False(t, config.IncludeHealthy)
	assert.Equal(t, "0.65", config.CostRatio.String())
	// Untouched keys keep their defaults
	assert.Equal(t, 7, config.TransferHorizonDays)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "horizon: 14\n"},
		{"wrong type", "horizon_days: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Default().Decode(strings.NewReader(tt.doc))
			assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
		})
	}
}

func TestDecode_EmptyDocument(t *testing.T) {
	settings := Default()
	require.NoError(t, settings.Decode(strings.NewReader("")))
	assert.Equal(t, Default(), settings)
}

func TestApplyEnv(t *testing.T) {
	settings := Default()
	err := settings.ApplyEnv(lookupFrom(map[string]string{
		"REPLENISH_HORIZON_DAYS":      "60",
		"REPLENISH_CRITICAL_FRACTION": "0.25",
		"REPLENISH_ROUNDING":          "largest-remainder",
		"REPLENISH_INCLUDE_HEALTHY":   "false",
		"REPLENISH_WORKERS":           " ",
	}))
	require.NoError(t, err)

	assert.Equal(t, 60, settings.HorizonDays)
	assert.Equal(t, 0.25, settings.CriticalFraction)
	assert.Equal(t, "largest-remainder", settings.Rounding)
	assert.False(t, settings.IncludeHealthy)
	// Blank values are ignored
	assert.Equal(t, Default().Workers, settings.Workers)
}

func TestApplyEnv_ParseErrors(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"REPLENISH_HORIZON_DAYS", "thirty"},
		{"REPLENISH_COST_RATIO", "70%"},
		{"REPLENISH_INCLUDE_HEALTHY", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := Default().ApplyEnv(lookupFrom(map[string]string{tt.key: tt.value}))
			assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"zero horizon", func(s *Settings) { s.HorizonDays = 0 }},
		{"critical fraction above one", func(s *Settings) { s.CriticalFraction = 1.2 }},
		{"unknown rounding", func(s *Settings) { s.Rounding = "ceil" }},
		{"unknown strategy", func(s *Settings) { s.Strategy = "arima" }},
		{"unknown shortage mode", func(s *Settings) { s.ShortageMode = "hybrid" }},
		{"negative cost ratio", func(s *Settings) { s.CostRatio = -1 }},
		{"one seasonal point", func(s *Settings) { s.MinSeasonalPoints = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := Default()
			tt.mutate(settings)
			assert.ErrorIs(t, settings.Validate(), entities.ErrInvalidConfiguration)
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replenish.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon_days: 14\nworkers: 2\n"), 0o644))
	t.Setenv("REPLENISH_WORKERS", "6")

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 14, settings.HorizonDays)
	assert.Equal(t, 6, settings.Workers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("horizon_days: -1\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
}
