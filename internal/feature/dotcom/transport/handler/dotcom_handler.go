// Package handler はドットコムバブル系列のHTTPハンドラーを提供します。
package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"bubble_backend/internal/feature/candles/domain/entity"
	"bubble_backend/internal/feature/dotcom/usecase"
	"bubble_backend/internal/platform/render"
)

// symbol はペイロード上の系列名です。
const symbol = "DOTCOM"

// SeriesGenerator は合成系列を生成します。
type SeriesGenerator interface {
	Generate() []entity.Candle
}

// DotcomHandler は合成系列のHTTPリクエストを処理します。
type DotcomHandler struct {
	gen SeriesGenerator
}

// NewDotcomHandler は新しい DotcomHandler を作成します。
func NewDotcomHandler(gen SeriesGenerator) *DotcomHandler {
	return &DotcomHandler{gen: gen}
}

// Get は呼び出しごとに新しく生成した系列を返します。
//
// エンドポイント例:
// GET /dotcom
func (h *DotcomHandler) Get(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, render.NewPayload(usecase.Title, symbol, h.gen.Generate()))
}

// ChartPNG は終値の折れ線チャートをPNGで返します。
//
// エンドポイント例:
// GET /dotcom/chart.png
func (h *DotcomHandler) ChartPNG(c *gin.Context) {
	img, err := render.ClosePNG(usecase.Title, h.gen.Generate())
	if err != nil {
		slog.Error("failed to render dotcom chart", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render chart"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img)
}
