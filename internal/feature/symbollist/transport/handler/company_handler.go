package handler

import (
	"context"
	"net/http"

	"bubble_backend/internal/feature/symbollist/domain/entity"
	"bubble_backend/internal/feature/symbollist/transport/http/dto"

	"github.com/gin-gonic/gin"
)

// CompanyUsecase は銘柄一覧に関するユースケースのインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type CompanyUsecase interface {
	ListCompanies(ctx context.Context) ([]entity.Company, error)
	ListDotcomCompanies(ctx context.Context) ([]entity.Company, error)
}

// CompanyHandler は銘柄一覧に関するHTTPリクエストを処理します。
type CompanyHandler struct {
	uc CompanyUsecase
}

// NewCompanyHandler は新しい CompanyHandler を作成します。
func NewCompanyHandler(uc CompanyUsecase) *CompanyHandler {
	return &CompanyHandler{uc: uc}
}

// List はAIバブル銘柄の一覧を返すAPIです。
func (h *CompanyHandler) List(c *gin.Context) {
	h.respond(c, h.uc.ListCompanies)
}

// ListDotcom はドットコムバブル期の比較銘柄の一覧を返すAPIです。
func (h *CompanyHandler) ListDotcom(c *gin.Context) {
	h.respond(c, h.uc.ListDotcomCompanies)
}

func (h *CompanyHandler) respond(c *gin.Context, list func(context.Context) ([]entity.Company, error)) {
	companies, err := list(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]dto.CompanyItem, 0, len(companies))
	for _, co := range companies {
		out = append(out, dto.CompanyItem{Symbol: co.Symbol, Name: co.DisplayName})
	}
	c.JSON(http.StatusOK, out)
}
