// Package usecase holds the dashboard panel: the selected symbol, the
// auto-update timers and the last rendered series.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"bubble_backend/internal/feature/candles/domain/entity"
	candles "bubble_backend/internal/feature/candles/usecase"
)

const (
	// DefaultSymbol is selected when the panel opens.
	DefaultSymbol = "NVDA"
	// RefreshInterval is the auto-update fetch period.
	RefreshInterval = 30 * time.Second
	// CountdownStart is the value NextUpdateIn resets to.
	CountdownStart = 30

	countdownInterval = time.Second
	refreshTimeout    = 25 * time.Second
)

// ErrClosed is returned by operations on a closed panel.
var ErrClosed = errors.New("dashboard panel is closed")

// CandlesUsecase returns a downsampled series for a symbol.
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol string, maxPoints int) ([]entity.Candle, error)
}

// Ticker is a cancellable set of periodic jobs. Stop must not wait for a
// running job.
type Ticker interface {
	Every(d time.Duration, fn func()) error
	Start()
	Stop()
}

// Snapshot is a copy of the panel state.
type Snapshot struct {
	Symbol       string
	Title        string
	AutoUpdate   bool
	NextUpdateIn int
	LastUpdated  time.Time
	Loading      bool
	Series       []entity.Candle
	// SeriesSymbol and SeriesTitle name the symbol Series was loaded for.
	// They differ from Symbol while a newly selected symbol is loading or
	// after its load failed. Both are empty before the first load.
	SeriesSymbol string
	SeriesTitle  string
}

// Panel is the server-side state of the AI chart. Any failed refresh keeps
// the previous series and leaves Loading set.
type Panel struct {
	candles   CandlesUsecase
	newTicker func() Ticker
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	symbol       string
	autoUpdate   bool
	nextUpdateIn int
	lastUpdated  time.Time
	loading      bool
	series       []entity.Candle
	seriesSymbol string
	ticker       Ticker
	generation   uint64
	closed       bool
}

// NewPanel creates a panel showing DefaultSymbol. Nothing is fetched and no
// timer runs until Start.
func NewPanel(c CandlesUsecase, newTicker func() Ticker, autoUpdate bool, now func() time.Time) *Panel {
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Panel{
		candles:      c,
		newTicker:    newTicker,
		now:          now,
		ctx:          ctx,
		cancel:       cancel,
		symbol:       DefaultSymbol,
		autoUpdate:   autoUpdate,
		nextUpdateIn: CountdownStart,
		loading:      true,
	}
}

// Start loads the initial series and arms the timers when auto-update is on.
// A failed initial load is logged; the timers still start.
func (p *Panel) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.autoUpdate {
		p.armLocked()
	}
	p.mu.Unlock()

	if err := p.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		slog.Error("initial dashboard load failed", "error", err)
	}
	return nil
}

// SetSymbol switches the panel to symbol, restarts the timers and reloads.
// The old series stays visible until the new one arrives.
func (p *Panel) SetSymbol(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return candles.ErrInvalidSymbol
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if symbol == p.symbol {
		p.mu.Unlock()
		return nil
	}
	p.symbol = symbol
	p.generation++
	p.loading = true
	if p.autoUpdate {
		p.armLocked()
	}
	p.mu.Unlock()

	if err := p.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
		slog.Error("failed to load symbol", "symbol", symbol, "error", err)
	}
	return nil
}

// SetAutoUpdate turns the periodic refresh on or off.
func (p *Panel) SetAutoUpdate(on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if on == p.autoUpdate {
		return nil
	}
	p.autoUpdate = on
	if on {
		p.armLocked()
	} else {
		p.disarmLocked()
	}
	return nil
}

// Refresh fetches the selected symbol. On failure the previous series and
// LastUpdated are kept and the error is returned. A result for a symbol that
// is no longer selected is dropped.
func (p *Panel) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	symbol, gen := p.symbol, p.generation
	p.loading = true
	p.mu.Unlock()

	series, err := p.candles.GetCandles(ctx, symbol, candles.MaxPoints)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.closed {
		return nil
	}
	if err != nil {
		slog.Error("dashboard refresh failed", "symbol", symbol, "error", err)
		return err
	}
	p.series = series
	p.seriesSymbol = symbol
	p.lastUpdated = p.now()
	p.loading = false
	return nil
}

// Snapshot returns a copy of the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	var seriesTitle string
	if p.seriesSymbol != "" {
		seriesTitle = candles.Title(p.seriesSymbol)
	}
	return Snapshot{
		Symbol:       p.symbol,
		Title:        candles.Title(p.symbol),
		AutoUpdate:   p.autoUpdate,
		NextUpdateIn: p.nextUpdateIn,
		LastUpdated:  p.lastUpdated,
		Loading:      p.loading,
		Series:       append([]entity.Candle(nil), p.series...),
		SeriesSymbol: p.seriesSymbol,
		SeriesTitle:  seriesTitle,
	}
}

// Close stops the timers and cancels in-flight timer refreshes.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.disarmLocked()
	p.cancel()
}

// tick is the 30s auto-update job.
func (p *Panel) tick() {
	p.mu.Lock()
	on := p.autoUpdate && !p.closed
	p.mu.Unlock()
	if !on {
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, refreshTimeout)
	defer cancel()
	_ = p.Refresh(ctx)

	p.mu.Lock()
	p.nextUpdateIn = CountdownStart
	p.mu.Unlock()
}

// countdown is the 1s job behind NextUpdateIn.
func (p *Panel) countdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.autoUpdate || p.closed {
		return
	}
	if p.nextUpdateIn > 0 {
		p.nextUpdateIn--
	} else {
		p.nextUpdateIn = CountdownStart
	}
}

// armLocked replaces the ticker with a fresh one. p.mu must be held.
func (p *Panel) armLocked() {
	p.disarmLocked()
	if p.newTicker == nil {
		return
	}
	t := p.newTicker()
	if err := t.Every(RefreshInterval, p.tick); err != nil {
		slog.Error("failed to schedule refresh", "error", err)
		t.Stop()
		return
	}
	if err := t.Every(countdownInterval, p.countdown); err != nil {
		slog.Error("failed to schedule countdown", "error", err)
		t.Stop()
		return
	}
	p.nextUpdateIn = CountdownStart
	p.ticker = t
	t.Start()
}

// disarmLocked stops the current ticker. p.mu must be held.
func (p *Panel) disarmLocked() {
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
}
