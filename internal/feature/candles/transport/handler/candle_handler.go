// Package handler はcandlesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bubble_backend/internal/feature/candles/domain"
	"bubble_backend/internal/feature/candles/domain/entity"
	"bubble_backend/internal/feature/candles/transport/http/dto"
	"bubble_backend/internal/feature/candles/usecase"
	"bubble_backend/internal/platform/render"
)

// CandlesUsecase はローソク足データ操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type CandlesUsecase interface {
	GetCandles(ctx context.Context, symbol string, maxPoints int) ([]entity.Candle, error)
}

// SeriesCache は系列キャッシュの全消去を提供します。
type SeriesCache interface {
	InvalidateAll(ctx context.Context) error
}

// CandlesHandler はローソク足データのHTTPリクエストを処理します。
type CandlesHandler struct {
	uc    CandlesUsecase
	cache SeriesCache
}

// NewCandlesHandler は指定されたusecaseでCandlesHandlerの新しいインスタンスを生成します。
// cache が nil の場合、キャッシュ消去は何もしません。
func NewCandlesHandler(uc CandlesUsecase, cache SeriesCache) *CandlesHandler {
	return &CandlesHandler{uc: uc, cache: cache}
}

// GetCandlesHandler は銘柄の正規化・間引き済み系列をチャート用JSONで返します。
//
// エンドポイント例:
// GET /candles/:symbol?max_points=500
func (h *CandlesHandler) GetCandlesHandler(c *gin.Context) {
	symbol, candles, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, render.NewPayload(usecase.Title(symbol), symbol, candles))
}

// GetChartPNGHandler は終値の折れ線チャートをPNGで返します。
//
// エンドポイント例:
// GET /candles/:symbol/chart.png
func (h *CandlesHandler) GetChartPNGHandler(c *gin.Context) {
	symbol, candles, ok := h.load(c)
	if !ok {
		return
	}
	img, err := render.ClosePNG(usecase.Title(symbol), candles)
	if err != nil {
		if errors.Is(err, render.ErrNotEnoughData) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("failed to render chart", "symbol", symbol, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to render chart"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img)
}

// InvalidateCacheHandler は系列キャッシュを全消去します。
//
// エンドポイント例:
// DELETE /cache/series
func (h *CandlesHandler) InvalidateCacheHandler(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
			slog.Error("failed to invalidate series cache", "error", err)
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (h *CandlesHandler) load(c *gin.Context) (string, []entity.Candle, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	// 不正な値は0として渡し、usecase側で既定値に置き換える
	maxPoints, _ := strconv.Atoi(c.Query("max_points"))

	candles, err := h.uc.GetCandles(c.Request.Context(), symbol, maxPoints)
	if err != nil {
		c.JSON(StatusFor(err), dto.ErrorResponse{Error: err.Error()})
		return symbol, nil, false
	}
	return symbol, candles, true
}

// StatusFor はユースケースのエラーをHTTPステータスに対応付けます。
func StatusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyData):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrParse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
