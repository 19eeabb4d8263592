package ratings

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurbanow/rideline/pkg/common"
)

func foldAll(values []int) (float64, int) {
	var avg float64
	for i, v := range values {
		avg = nextAverage(avg, i, v)
	}
	return avg, len(values)
}

func TestNextAverageMatchesMean(t *testing.T) {
	cases := []struct {
		name   string
		values []int
		want   float64
	}{
		{"single", []int{4}, 4.0},
		{"two", []int{4, 5}, 4.5},
		{"five", []int{5, 4, 4, 3, 5}, 4.2},
		{"all max", []int{5, 5, 5, 5}, 5.0},
		{"all min", []int{1, 1, 1}, 1.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, count := foldAll(tc.values)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, len(tc.values), count)

			var sum int
			for _, v := range tc.values {
				sum += v
			}
			mean := math.Round(float64(sum)/float64(len(tc.values))*10) / 10
			assert.Equal(t, mean, got)
		})
	}
}

func TestNextAverageOrderIndependent(t *testing.T) {
	forward, _ := foldAll([]int{5, 4, 4, 3, 5})
	reverse, _ := foldAll([]int{5, 3, 4, 4, 5})

	assert.Equal(t, forward, reverse)
}

func TestNextAverageRoundsToOneDecimal(t *testing.T) {
	got := nextAverage(4.5, 2, 4)

	assert.Equal(t, 4.3, got)
}

func TestApplyRejectsOutOfRangeRatings(t *testing.T) {
	agg := NewAggregator(nil)

	for _, v := range []int{0, -1, 6} {
		err := agg.Apply(context.Background(), uuid.New(), v)
		require.Error(t, err)

		var appErr *common.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.Code)
	}
}
