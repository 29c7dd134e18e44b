package forecast

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Accuracy summarises one-day-ahead forecast errors over a holdout window
type Accuracy struct {
	Strategy string  `json:"strategy"`
	Points   int     `json:"points"`
	MAE      float64 `json:"mae"`
	RMSE     float64 `json:"rmse"`
}

// Backtest walks forward over the last holdout days, forecasting each day from the
// history before it, and reports the mean absolute and root mean squared errors
func Backtest(f Forecaster, series entities.Series, holdout int) (*Accuracy, error) {
	daily, err := prepare(series, 1)
	if err != nil {
		return nil, err
	}
	if holdout <= 0 {
		return nil, fmt.Errorf("%w: holdout must be positive, got %d", entities.ErrInvalidConfiguration, holdout)
	}
	if len(daily) <= holdout {
		return nil, fmt.Errorf("%w: %d daily points cannot cover a holdout of %d", entities.ErrInsufficientHistory, len(daily), holdout)
	}

	absErrors := make(stats.Float64Data, 0, holdout)
	sqErrors := make(stats.Float64Data, 0, holdout)
	for i := len(daily) - holdout; i < len(daily); i++ {
		predicted, err := f.Forecast(daily[:i], 1)
		if err != nil {
			return nil, fmt.Errorf("backtest step %d: %w", i, err)
		}
		diff := predicted - daily[i].Value
		absErrors = append(absErrors, math.Abs(diff))
		sqErrors = append(sqErrors, diff*diff)
	}

	mae, err := stats.Mean(absErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to compute MAE: %w", err)
	}
	mse, err := stats.Mean(sqErrors)
	if err != nil {
		return nil, fmt.Errorf("failed to compute RMSE: %w", err)
	}

	return &Accuracy{
		Strategy: f.Name(),
		Points:   holdout,
		MAE:      mae,
		RMSE:     math.Sqrt(mse),
	}, nil
}
