// Package usecase はドットコムバブル期の合成ローソク足系列を生成します。
package usecase

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"bubble_backend/internal/feature/candles/domain/entity"
)

// Title はドットコムバブル系列の表示タイトルです。
const Title = "Dotcom Bubble (1995-2003)"

// Samples は生成する本数です。
const Samples = 200

const (
	basePrice  = 50.0
	peakPrice  = 500.0
	crashPrice = 100.0
)

// 各局面の境界日 (UTC)。
var (
	Start = time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC)
	Peak  = time.Date(2000, time.March, 10, 0, 0, 0, 0, time.UTC)
	Crash = time.Date(2002, time.October, 9, 0, 0, 0, 0, time.UTC)
	End   = time.Date(2003, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Generator は上昇・暴落・回復の3局面に乱数ノイズを重ねた系列を作ります。
// 形状は固定で、ノイズだけが呼び出しごとに変わります。
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator は src を乱数源とする Generator を生成します。
// src が nil の場合は時刻で初期化した PCG を使います。
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	return &Generator{rng: rand.New(src)}
}

// Generate は Samples 本の時刻昇順・正値のローソク足を返します。
func (g *Generator) Generate() []entity.Candle {
	g.mu.Lock()
	defer g.mu.Unlock()

	totalDays := int(End.Sub(Start) / (24 * time.Hour))
	step := totalDays / Samples

	out := make([]entity.Candle, 0, Samples)
	for i := 0; i < Samples; i++ {
		at := Start.AddDate(0, 0, i*step)
		target := targetPrice(at)

		vol := 5 + g.rng.Float64()*15
		open := target + (g.rng.Float64()-0.5)*vol
		high := math.Max(open, target) + g.rng.Float64()*vol
		low := math.Min(open, target) - g.rng.Float64()*vol
		closePrice := target + (g.rng.Float64()-0.5)*vol*0.5

		out = append(out, entity.Candle{
			Timestamp: at.UnixMilli(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
		})
	}
	return out
}

// targetPrice は局面ごとの基準価格です。
func targetPrice(at time.Time) float64 {
	switch {
	case at.Before(Peak):
		p := progress(at, Start, Peak)
		return basePrice + (peakPrice-basePrice)*p + math.Sin(p*math.Pi*4)*20
	case at.Before(Crash):
		p := progress(at, Peak, Crash)
		return peakPrice - (peakPrice-crashPrice)*p - math.Sin(p*math.Pi)*50
	default:
		p := progress(at, Crash, End)
		return crashPrice + (basePrice-crashPrice)*p*0.3 + math.Sin(p*math.Pi*2)*10
	}
}

func progress(at, from, to time.Time) float64 {
	return float64(at.Sub(from)) / float64(to.Sub(from))
}
