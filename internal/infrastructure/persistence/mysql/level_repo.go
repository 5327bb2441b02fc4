package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

type levelRepository struct {
	db *gorm.DB
}

// NewLevelRepository 创建库存仓储
func NewLevelRepository(db *gorm.DB) stock.LevelRepository {
	return &levelRepository{db: db}
}

// CurrentQuantity SELECT quantity ... FOR UPDATE
// 在事务内调用时锁住该行，直到提交或回滚
func (r *levelRepository) CurrentQuantity(ctx context.Context, productID, variantID int64) (int, bool, error) {
	var row StockAvailable
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id_stock_available", "quantity").
		Where("id_product = ? AND id_product_attribute = ?", productID, variantID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, apperrors.WithCode(err, apperrors.ErrCodeDatabaseError, "查询库存失败")
	}
	return row.Quantity, true, nil
}

// Adjust UPDATE stock_available SET quantity = quantity ± n WHERE ... LIMIT 1
//
// 相对更新，不读后写，不做下限校验（允许负库存）
// MySQL方言会带上LIMIT 1；Postgres不支持UPDATE ... LIMIT，GORM会忽略该子句
func (r *levelRepository) Adjust(ctx context.Context, productID, variantID int64, delta int) (int64, error) {
	if delta == 0 {
		return 0, nil
	}

	expr := gorm.Expr("quantity + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("quantity - ?", -delta)
	}

	result := r.db.WithContext(ctx).
		Model(&StockAvailable{}).
		Where("id_product = ? AND id_product_attribute = ?", productID, variantID).
		Limit(1).
		UpdateColumn("quantity", expr)
	if result.Error != nil {
		return 0, apperrors.WithCode(result.Error, apperrors.ErrCodeDatabaseError, "更新库存失败")
	}
	return result.RowsAffected, nil
}
