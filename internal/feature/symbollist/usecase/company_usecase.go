// Package usecase implements the company roster: the tracked symbols and
// their display names.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bubble_backend/internal/feature/symbollist/domain/entity"
	"bubble_backend/internal/platform/cache"
)

// RosterTTL is how long a roster is served before the remote source is asked again.
const RosterTTL = time.Hour

const rosterKey = "roster"

// CompanyRepository abstracts the optional remote roster source.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type CompanyRepository interface {
	ListActive(ctx context.Context) ([]entity.Company, error)
}

// CompanyUsecase serves the roster from a one-hour cache. A failing or absent
// remote source degrades to the static table, which is cached as fresh.
type CompanyUsecase struct {
	repo CompanyRepository
	memo *cache.Memo[[]entity.Company]
}

// NewCompanyUsecase creates a CompanyUsecase. repo may be nil.
func NewCompanyUsecase(r CompanyRepository, now func() time.Time) *CompanyUsecase {
	return &CompanyUsecase{
		repo: r,
		memo: cache.NewMemo[[]entity.Company](RosterTTL, now),
	}
}

// ListCompanies returns the AI roster. It never fails: remote errors are
// logged and answered with the fallback table.
func (u *CompanyUsecase) ListCompanies(ctx context.Context) ([]entity.Company, error) {
	return u.memo.GetOrFetch(ctx, rosterKey, func(ctx context.Context) (cache.Entry[[]entity.Company], error) {
		return cache.Entry[[]entity.Company]{Value: u.load(ctx)}, nil
	})
}

// ListDotcomCompanies returns the static dotcom comparison list.
func (u *CompanyUsecase) ListDotcomCompanies(ctx context.Context) ([]entity.Company, error) {
	return DotcomCompanies(), nil
}

// DisplayName returns the display name for symbol.
func (u *CompanyUsecase) DisplayName(symbol string) string {
	return DisplayName(strings.ToUpper(strings.TrimSpace(symbol)))
}

func (u *CompanyUsecase) load(ctx context.Context) []entity.Company {
	if u.repo == nil {
		return FallbackCompanies()
	}
	companies, err := u.repo.ListActive(ctx)
	if err != nil {
		slog.Warn("remote roster unavailable, using fallback", "error", err)
		return FallbackCompanies()
	}
	if len(companies) == 0 {
		slog.Warn("remote roster is empty, using fallback")
		return FallbackCompanies()
	}

	out := make([]entity.Company, 0, len(companies))
	for _, c := range companies {
		c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
		if c.Symbol == "" {
			continue
		}
		if c.DisplayName == "" {
			c.DisplayName = DisplayName(c.Symbol)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return FallbackCompanies()
	}
	return out
}
