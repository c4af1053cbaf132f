// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"bubble_backend/internal/feature/symbollist/domain/entity"
	"bubble_backend/internal/feature/symbollist/usecase"

	"gorm.io/gorm"
)

// companyGorm はCompanyRepositoryインターフェースのgorm実装です。
// sqlite と postgres のどちらの接続でも動作します。
type companyGorm struct {
	db *gorm.DB
}

var _ usecase.CompanyRepository = (*companyGorm)(nil)

// NewCompanyRepository は指定されたDB接続でリモート銘柄ソースを生成します。
func NewCompanyRepository(db *gorm.DB) *companyGorm {
	return &companyGorm{db: db}
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *companyGorm) ListActive(ctx context.Context) ([]entity.Company, error) {
	var companies []entity.Company
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// SeedIfEmpty はテーブルが空のときだけ銘柄を投入し、投入件数を返します。
func (r *companyGorm) SeedIfEmpty(ctx context.Context, companies []entity.Company) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Company{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 || len(companies) == 0 {
		return 0, nil
	}
	if err := r.db.WithContext(ctx).Create(&companies).Error; err != nil {
		return 0, err
	}
	return len(companies), nil
}
