// Package handler はダッシュボードパネルのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	candlehandler "bubble_backend/internal/feature/candles/transport/handler"
	"bubble_backend/internal/feature/dashboard/usecase"
	"bubble_backend/internal/platform/render"
)

// Panel はダッシュボードパネルの操作です。
type Panel interface {
	Snapshot() usecase.Snapshot
	SetSymbol(ctx context.Context, symbol string) error
	SetAutoUpdate(on bool) error
	Refresh(ctx context.Context) error
}

// DashboardHandler はパネル状態のHTTPリクエストを処理します。
type DashboardHandler struct {
	panel Panel
}

// NewDashboardHandler は新しい DashboardHandler を作成します。
func NewDashboardHandler(p Panel) *DashboardHandler {
	return &DashboardHandler{panel: p}
}

// StateResponse はパネル状態のレスポンスです。
type StateResponse struct {
	Symbol       string         `json:"symbol"`
	AutoUpdate   bool           `json:"auto_update"`
	NextUpdateIn int            `json:"next_update_in"`
	LastUpdated  *string        `json:"last_updated"`
	Loading      bool           `json:"loading"`
	Chart        render.Payload `json:"chart"`
}

type symbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

type autoUpdateRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Get は現在のパネル状態を返します。
//
// エンドポイント例:
// GET /dashboard
func (h *DashboardHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, toResponse(h.panel.Snapshot()))
}

// PutSymbol は表示銘柄を切り替えます。
//
// エンドポイント例:
// PUT /dashboard/symbol {"symbol":"AMD"}
func (h *DashboardHandler) PutSymbol(c *gin.Context) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.panel.SetSymbol(c.Request.Context(), req.Symbol); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(h.panel.Snapshot()))
}

// PutAutoUpdate は自動更新の有効・無効を切り替えます。
//
// エンドポイント例:
// PUT /dashboard/auto-update {"enabled":false}
func (h *DashboardHandler) PutAutoUpdate(c *gin.Context) {
	var req autoUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.panel.SetAutoUpdate(*req.Enabled); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(h.panel.Snapshot()))
}

// PostRefresh は即時に再取得します。失敗時もパネルは直前の状態を保ちます。
//
// エンドポイント例:
// POST /dashboard/refresh
func (h *DashboardHandler) PostRefresh(c *gin.Context) {
	if err := h.panel.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(h.panel.Snapshot()))
}

func (h *DashboardHandler) fail(c *gin.Context, err error) {
	status := candlehandler.StatusFor(err)
	if errors.Is(err, usecase.ErrClosed) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func toResponse(s usecase.Snapshot) StateResponse {
	var last *string
	if !s.LastUpdated.IsZero() {
		v := s.LastUpdated.UTC().Format(time.RFC3339)
		last = &v
	}
	return StateResponse{
		Symbol:       s.Symbol,
		AutoUpdate:   s.AutoUpdate,
		NextUpdateIn: s.NextUpdateIn,
		LastUpdated:  last,
		Loading:      s.Loading,
		Chart:        chartFor(s),
	}
}

// chartFor は系列を実際に取得した銘柄の名前でチャートを組み立てます。
// 銘柄切り替え直後は選択中の銘柄と異なることがあります。
func chartFor(s usecase.Snapshot) render.Payload {
	if s.SeriesSymbol == "" {
		return render.NewPayload(s.Title, s.Symbol, s.Series)
	}
	return render.NewPayload(s.SeriesTitle, s.SeriesSymbol, s.Series)
}
