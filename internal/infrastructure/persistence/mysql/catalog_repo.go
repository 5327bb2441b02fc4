package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建分类仓储
func NewCatalogRepository(db *gorm.DB) stock.CatalogReader {
	return &catalogRepository{db: db}
}

// FilterInCategory 一条IN查询判断整单商品的分类归属，避免逐个商品查询
func (r *catalogRepository) FilterInCategory(ctx context.Context, productIDs []int64, categoryID int64) (map[int64]bool, error) {
	result := make(map[int64]bool)
	if len(productIDs) == 0 {
		return result, nil
	}

	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&CategoryProduct{}).
		Distinct().
		Where("id_category = ? AND id_product IN ?", categoryID, productIDs).
		Pluck("id_product", &ids).Error
	if err != nil {
		return nil, apperrors.WithCode(err, apperrors.ErrCodeDatabaseError, "查询商品分类失败")
	}

	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
