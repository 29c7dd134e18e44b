package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

var testKey = entities.EntityKey{Location: "STORE_01", Product: "P001"}

func TestComputeReorderPoint_ConstantUsage(t *testing.T) {
	// Flat sales of 10/day with a two day lead time carry no safety stock
	threshold, err := ComputeReorderPoint(testKey, []float64{10, 10, 10, 10, 10}, 2)
	require.NoError(t, err)

	assert.Equal(t, 10.0, threshold.AverageDailyUsage)
	assert.Equal(t, 10.0, threshold.MaxDailyUsage)
	assert.Equal(t, 0.0, threshold.SafetyStock)
	assert.Equal(t, 20.0, threshold.ReorderPoint)
	assert.Equal(t, 2, threshold.LeadTimeDays)
}

func TestComputeReorderPoint_ExactForEqualValues(t *testing.T) {
	values := []float64{0.1, 0.7, 3.3, 12.5, 41, 1e6 / 3}
	leadTimes := []int{1, 3, 7, 30}

	for _, v := range values {
		for _, n := range []int{1, 3, 9, 101} {
			for _, lt := range leadTimes {
				usage := make([]float64, n)
				for i := range usage {
					usage[i] = v
				}

				threshold, err := ComputeReorderPoint(testKey, usage, lt)
				require.NoError(t, err)
				assert.Equal(t, v*float64(lt), threshold.ReorderPoint, "v=%v n=%d lead=%d", v, n, lt)
				assert.Equal(t, 0.0, threshold.SafetyStock)
			}
		}
	}
}

func TestComputeReorderPoint_WithVariance(t *testing.T) {
	threshold, err := ComputeReorderPoint(testKey, []float64{4, 8, 12}, 3)
	require.NoError(t, err)

	// avg 8, max 12: safety (12-8)*3 = 12, rop 8*3 + 12 = 36
	assert.InDelta(t, 8.0, threshold.AverageDailyUsage, 1e-9)
	assert.InDelta(t, 12.0, threshold.SafetyStock, 1e-9)
	assert.InDelta(t, 36.0, threshold.ReorderPoint, 1e-9)
	assert.InDelta(t, threshold.MaxDailyUsage*3, threshold.ReorderPoint, 1e-9)
}

func TestComputeReorderPoint_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		usage    []float64
		leadTime int
		target   error
	}{
		{"empty usage", nil, 2, entities.ErrInsufficientHistory},
		{"zero lead time", []float64{1, 2}, 0, entities.ErrInvalidEntity},
		{"negative usage", []float64{1, -2}, 2, entities.ErrInvalidEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeReorderPoint(testKey, tc.usage, tc.leadTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}
