package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	candleshandler "bubble_backend/internal/feature/candles/transport/handler"
	dashboardhandler "bubble_backend/internal/feature/dashboard/transport/handler"
	dotcomhandler "bubble_backend/internal/feature/dotcom/transport/handler"
	symbollisthandler "bubble_backend/internal/feature/symbollist/transport/handler"
	platformhandler "bubble_backend/internal/platform/http/handler"
)

// Handlers は NewRouter が登録するハンドラー群です。
type Handlers struct {
	Candles   *candleshandler.CandlesHandler
	Companies *symbollisthandler.CompanyHandler
	Dotcom    *dotcomhandler.DotcomHandler
	Dashboard *dashboardhandler.DashboardHandler
	Checks    map[string]platformhandler.Check
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.Default()

	// ブラウザのダッシュボードから直接呼び出せるようにする
	r.Use(cors.Default())

	// 導通確認用
	health := platformhandler.Health(h.Checks)
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.OPTIONS("/healthz", health)

	// 銘柄一覧
	r.GET("/companies", h.Companies.List)
	r.GET("/companies/dotcom", h.Companies.ListDotcom)

	// 日足系列
	r.GET("/candles/:symbol", h.Candles.GetCandlesHandler)
	r.GET("/candles/:symbol/chart.png", h.Candles.GetChartPNGHandler)
	r.DELETE("/cache/series", h.Candles.InvalidateCacheHandler)

	// ドットコムバブルの合成系列
	r.GET("/dotcom", h.Dotcom.Get)
	r.GET("/dotcom/chart.png", h.Dotcom.ChartPNG)

	// ダッシュボードのパネル状態
	dashboard := r.Group("/dashboard")
	{
		dashboard.GET("", h.Dashboard.Get)
		dashboard.PUT("/symbol", h.Dashboard.PutSymbol)
		dashboard.PUT("/auto-update", h.Dashboard.PutAutoUpdate)
		dashboard.POST("/refresh", h.Dashboard.PostRefresh)
	}

	return r
}
