package usecase

import "bubble_backend/internal/feature/candles/domain/entity"

// MaxPoints is the default rendering budget for a single chart.
const MaxPoints = 500

// Downsample keeps every step-th candle from index 0, step = ceil(n/maxPoints),
// and always keeps the final candle of the input. maxPoints <= 0 means MaxPoints.
func Downsample(series []entity.Candle, maxPoints int) []entity.Candle {
	if maxPoints <= 0 {
		maxPoints = MaxPoints
	}
	n := len(series)
	if n <= maxPoints {
		return series
	}

	step := (n + maxPoints - 1) / maxPoints
	out := make([]entity.Candle, 0, maxPoints+1)
	last := -1
	for i := 0; i < n; i += step {
		out = append(out, series[i])
		last = i
	}
	// identity of the last element, not timestamp equality
	if last != n-1 {
		out = append(out, series[n-1])
	}
	return out
}
