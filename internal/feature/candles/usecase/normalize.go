package usecase

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"bubble_backend/internal/feature/candles/domain"
	"bubble_backend/internal/feature/candles/domain/entity"
)

const (
	// MinDensity 未満の本数しか窓内に無い場合は日次の穴埋めを行います。
	MinDensity = 100
	// MaxGap 以上離れた実データは穴埋めに使いません。
	MaxGap = 7 * 24 * time.Hour

	dayMillis = int64(24 * time.Hour / time.Millisecond)
)

// WindowStart はAIバブル系列の取得開始日です。
var WindowStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// DropNonPositive はOHLCのいずれかが0以下のローソク足を取り除きます。
func DropNonPositive(raw []entity.Candle) []entity.Candle {
	out := make([]entity.Candle, 0, len(raw))
	for _, c := range raw {
		if c.Positive() {
			out = append(out, c)
		}
	}
	return out
}

// Normalize は系列を時刻昇順に並べ、[windowStart, windowEnd] に絞り込みます。
// 本数が MinDensity に満たない場合は暦日ごとに最近傍の実データで穴を埋めます。
// 結果が空になった場合は domain.ErrEmptyData を返します。
func Normalize(raw []entity.Candle, windowStart, windowEnd time.Time) ([]entity.Candle, error) {
	from, to := windowStart.UnixMilli(), windowEnd.UnixMilli()

	sorted := slices.Clone(raw)
	slices.SortStableFunc(sorted, func(a, b entity.Candle) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})

	filtered := make([]entity.Candle, 0, len(sorted))
	for _, c := range sorted {
		if c.Timestamp >= from && c.Timestamp <= to {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("%w: nothing between %s and %s",
			domain.ErrEmptyData, windowStart.UTC().Format(time.DateOnly), windowEnd.UTC().Format(time.DateOnly))
	}
	if len(filtered) >= MinDensity {
		return filtered, nil
	}

	filled := fillGaps(filtered, from, to)
	if len(filled) == 0 {
		return nil, fmt.Errorf("%w: gap filling produced no candles", domain.ErrEmptyData)
	}
	return filled, nil
}

// fillGaps visits every calendar day (UTC) from the day of `from` through
// the day of `to`. A filled bar keeps from's time of day, clamped to `to`.
// series must be sorted and non-empty.
func fillGaps(series []entity.Candle, from, to int64) []entity.Candle {
	byDay := make(map[int64]entity.Candle, len(series))
	for _, c := range series {
		// later bars of the same day replace earlier ones
		byDay[dayKey(c.Timestamp)] = c
	}

	first, last := dayKey(from), dayKey(to)
	out := make([]entity.Candle, 0, last-first+1)
	for d := first; d <= last; d++ {
		if c, ok := byDay[d]; ok {
			out = append(out, c)
			continue
		}
		t := min(from+(d-first)*dayMillis, to)
		nearest, ok := nearestWithin(series, t, MaxGap.Milliseconds())
		if !ok {
			continue
		}
		nearest.Timestamp = t
		out = append(out, nearest)
	}
	return out
}

// nearestWithin returns the candle closest to t. Ties keep the earliest.
func nearestWithin(series []entity.Candle, t, limit int64) (entity.Candle, bool) {
	best := series[0]
	bestDiff := absDiff(best.Timestamp, t)
	for _, c := range series[1:] {
		if d := absDiff(c.Timestamp, t); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	return best, bestDiff < limit
}

func dayKey(ms int64) int64 {
	k := ms / dayMillis
	if ms%dayMillis < 0 {
		k--
	}
	return k
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
