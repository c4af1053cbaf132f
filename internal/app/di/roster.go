package di

import (
	"gorm.io/gorm"

	"bubble_backend/internal/feature/symbollist/adapters"
	"bubble_backend/internal/feature/symbollist/usecase"
)

// NewCompanyRepository returns the database-backed roster when a connection
// exists. Otherwise it returns nil and the usecase serves the built-in list.
func NewCompanyRepository(db *gorm.DB) usecase.CompanyRepository {
	if db == nil {
		return nil
	}
	return adapters.NewCompanyRepository(db)
}
