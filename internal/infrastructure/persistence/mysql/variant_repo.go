package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

type variantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建组合仓储
func NewVariantRepository(db *gorm.DB) stock.VariantRepository {
	return &variantRepository{db: db}
}

// FindSibling 查找对侧组合
//
//	SELECT pa.id_product_attribute
//	FROM product_attribute pa
//	INNER JOIN product_attribute_combination pac ON pac.id_product_attribute = pa.id_product_attribute
//	WHERE pa.id_product = ? AND pac.id_attribute IN (10, 11) AND pa.id_product_attribute <> ?
//	ORDER BY pa.id_product_attribute LIMIT 1
func (r *variantRepository) FindSibling(ctx context.Context, productID, variantID int64, attributeIDs []int64) (int64, bool, error) {
	pa := tableName(r.db, "ProductAttribute")
	pac := tableName(r.db, "ProductAttributeCombination")

	var ids []int64
	err := r.db.WithContext(ctx).
		Table(pa+" AS pa").
		Joins("INNER JOIN "+pac+" AS pac ON pac.id_product_attribute = pa.id_product_attribute").
		Where("pa.id_product = ? AND pac.id_attribute IN ? AND pa.id_product_attribute <> ?", productID, attributeIDs, variantID).
		Order("pa.id_product_attribute").
		Limit(1).
		Pluck("pa.id_product_attribute", &ids).Error
	if err != nil {
		return 0, false, apperrors.WithCode(err, apperrors.ErrCodeDatabaseError, "查询对侧组合失败")
	}

	if len(ids) == 0 || ids[0] <= 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}
