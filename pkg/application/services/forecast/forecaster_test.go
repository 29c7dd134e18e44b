package forecast

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

var testKey = entities.EntityKey{Location: "S1", Product: "P1"}

// dailySeries builds one point per day starting at start
func dailySeries(start time.Time, values ...float64) entities.Series {
	series := make(entities.Series, len(values))
	for i, v := range values {
		series[i] = entities.TimeSeriesPoint{Time: start.AddDate(0, 0, i), Value: v}
	}
	return series
}

func generate(n int, f func(i int) float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = f(i)
	}
	return values
}

// monday is a Monday
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type panickingForecaster struct{}

func (panickingForecaster) Name() string { return "panicking" }

func (panickingForecaster) Forecast(entities.Series, int) (float64, error) {
	panic("matrix is singular")
}

func TestMovingAverage_SinglePoint(t *testing.T) {
	ma := NewMovingAverage(30)

	got, err := ma.Forecast(dailySeries(monday, 4), 30)

	require.NoError(t, err)
	assert.Equal(t, 120.0, got)
}

func TestMovingAverage_UsesTrailingWindow(t *testing.T) {
	ma := NewMovingAverage(3)
	series := dailySeries(monday, 100, 100, 1, 2, 3)

	got, err := ma.Forecast(series, 10)

	require.NoError(t, err)
	assert.InDelta(t, 20.0, got, 1e-9)
}

func TestMovingAverage_AggregatesSameDayPoints(t *testing.T) {
	ma := NewMovingAverage(30)
	series := entities.Series{
		{Time: monday.Add(15 * time.Hour), Value: 4},
		{Time: monday.Add(9 * time.Hour), Value: 3},
	}

	got, err := ma.Forecast(series, 2)

	require.NoError(t, err)
	assert.Equal(t, 14.0, got)
}

func TestForecast_PreconditionErrors(t *testing.T) {
	forecasters := []Forecaster{
		NewMovingAverage(30),
		NewSeasonal(14),
		WithFallback(NewSeasonal(14), NewMovingAverage(30), zerolog.Nop()),
	}

	for _, f := range forecasters {
		t.Run(f.Name(), func(t *testing.T) {
			_, err := f.Forecast(nil, 30)
			assert.ErrorIs(t, err, entities.ErrInsufficientHistory)

			_, err = f.Forecast(dailySeries(monday, 1, 2, 3), 0)
			assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
		})
	}
}

func TestSeasonal_LinearTrendStartsAfterLastObservation(t *testing.T) {
	seasonal := NewSeasonal(14)
	series := dailySeries(monday, generate(28, func(i int) float64 { return float64(i + 1) })...)

	got, err := seasonal.Forecast(series, 2)

	require.NoError(t, err)
	// Days 29 and 30 of the trend
	assert.InDelta(t, 59.0, got, 1e-6)
}

func TestSeasonal_NeverNegative(t *testing.T) {
	seasonal := NewSeasonal(14)
	series := dailySeries(monday, generate(20, func(i int) float64 { return 100 - 5*float64(i) })...)

	got, err := seasonal.Forecast(series, 30)

	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestSeasonal_WeeklyPattern(t *testing.T) {
	seasonal := NewSeasonal(14)
	weekly := func(i int) float64 {
		if i%7 >= 5 {
			return 30
		}
		return 10
	}
	// Eight full weeks ending on a Sunday
	throughSunday := dailySeries(monday, generate(56, weekly)...)
	// Same pattern ending on a Friday
	throughFriday := throughSunday[:54]

	weekdays, err := seasonal.Forecast(throughSunday, 2)
	require.NoError(t, err)
	weekend, err := seasonal.Forecast(throughFriday, 2)
	require.NoError(t, err)

	assert.Greater(t, weekend, 2*weekdays)

	week, err := seasonal.Forecast(throughSunday, 7)
	require.NoError(t, err)
	// Weekly effects cancel over a full week, leaving seven days of trend
	assert.InDelta(t, 122.06, week, 0.05)
}

func TestSeasonal_YearlyPattern(t *testing.T) {
	seasonal := NewSeasonal(14)
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC)

	var series entities.Series
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		value := 10.0
		if day.Month() == time.December {
			value = 50
		}
		series = append(series, entities.TimeSeriesPoint{Time: day, Value: value})
	}

	december, err := seasonal.Forecast(series, 31)

	require.NoError(t, err)
	assert.Greater(t, december, 31*30.0)
	assert.Less(t, december, 31*60.0)
}

func TestSeasonal_FitFailures(t *testing.T) {
	seasonal := NewSeasonal(14)

	tests := []struct {
		name   string
		series entities.Series
	}{
		{"too short", dailySeries(monday, generate(13, func(i int) float64 { return float64(i) })...)},
		{"constant", dailySeries(monday, generate(30, func(int) float64 { return 5 })...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := seasonal.Forecast(tt.series, 7)
			assert.ErrorIs(t, err, entities.ErrModelFit)
		})
	}
}

func TestFallback_DegradesOnConstantSeries(t *testing.T) {
	var buf bytes.Buffer
	f := WithFallback(NewSeasonal(14), NewMovingAverage(30), zerolog.New(&buf))
	series := dailySeries(monday, generate(30, func(int) float64 { return 5 })...)

	result, err := f.ForecastEntity(testKey, series, 30)

	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, "moving-average", result.Strategy)
	assert.Equal(t, 150.0, result.PredictedDemand)
	assert.Equal(t, testKey, result.Key)
	assert.Contains(t, buf.String(), "forecast model degraded")
	assert.Contains(t, buf.String(), "S1/P1")
}

func TestFallback_RecoversPanic(t *testing.T) {
	f := WithFallback(panickingForecaster{}, NewMovingAverage(30), zerolog.Nop())

	result, err := f.ForecastEntity(testKey, dailySeries(monday, 2, 4), 10)

	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.InDelta(t, 30.0, result.PredictedDemand, 1e-9)
}

func TestFallback_PrimarySucceeds(t *testing.T) {
	var buf bytes.Buffer
	f := WithFallback(NewSeasonal(14), NewMovingAverage(30), zerolog.New(&buf))
	series := dailySeries(monday, generate(28, func(i int) float64 { return float64(i + 1) })...)

	result, err := Predict(f, testKey, series, 2)

	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "seasonal", result.Strategy)
	assert.Empty(t, buf.String())
}

func TestPredict_PlainForecaster(t *testing.T) {
	result, err := Predict(NewMovingAverage(7), testKey, dailySeries(monday, 1, 2, 3), 3)

	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "moving-average", result.Strategy)
	assert.InDelta(t, 6.0, result.PredictedDemand, 1e-9)
	assert.Equal(t, 3, result.HorizonDays)
}

func TestForecast_NonNegativeProperty(t *testing.T) {
	f, err := New(DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	shapes := map[string]func(i int) float64{
		"falling":  func(i int) float64 { return math.Max(0, 60-3*float64(i)) },
		"spike":    func(i int) float64 { return 500 * math.Max(0, 1-math.Abs(float64(i-3))) },
		"sawtooth": func(i int) float64 { return float64(i % 5) },
	}

	for name, shape := range shapes {
		t.Run(name, func(t *testing.T) {
			for _, horizon := range []int{1, 7, 30, 90} {
				got, err := f.Forecast(dailySeries(monday, generate(21, shape)...), horizon)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got, 0.0)
			}
		})
	}
}

func TestNew(t *testing.T) {
	f, err := New(DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FallbackForecaster{}, f)
	assert.Equal(t, "seasonal", f.Name())

	config := DefaultConfig()
	config.Strategy = MovingAverageStrategy
	f, err = New(config, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MovingAverage{}, f)

	config.MovingAverageWindow = 0
	_, err = New(config, zerolog.Nop())
	assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"seasonal", SeasonalStrategy, false},
		{"Moving-Average", MovingAverageStrategy, false},
		{"sma", MovingAverageStrategy, false},
		{"arima", SeasonalStrategy, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStrategy(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBacktest(t *testing.T) {
	flat := dailySeries(monday, generate(20, func(int) float64 { return 8 })...)

	accuracy, err := Backtest(NewMovingAverage(7), flat, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, accuracy.Points)
	assert.Equal(t, 0.0, accuracy.MAE)
	assert.Equal(t, 0.0, accuracy.RMSE)

	step := dailySeries(monday, 1, 1, 1, 3)
	accuracy, err = Backtest(NewMovingAverage(7), step, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, accuracy.MAE, 1e-9)
	assert.InDelta(t, 2.0, accuracy.RMSE, 1e-9)

	_, err = Backtest(NewMovingAverage(7), step, 4)
	assert.ErrorIs(t, err, entities.ErrInsufficientHistory)

	_, err = Backtest(NewMovingAverage(7), step, 0)
	assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
}
