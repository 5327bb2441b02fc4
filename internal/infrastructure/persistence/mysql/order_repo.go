package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// orderRepository 订单明细仓储（只读）
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单明细仓储
func NewOrderRepository(db *gorm.DB) stock.OrderReader {
	return &orderRepository{db: db}
}

// ListLineItems 按明细ID顺序返回订单的全部明细
func (r *orderRepository) ListLineItems(ctx context.Context, orderID int64) ([]stock.LineItem, error) {
	var rows []OrderDetail
	err := r.db.WithContext(ctx).
		Select("id_order_detail", "product_id", "product_attribute_id", "product_quantity").
		Where("id_order = ?", orderID).
		Order("id_order_detail").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.WithCode(err, apperrors.ErrCodeDatabaseError, "查询订单明细失败")
	}

	items := make([]stock.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, stock.LineItem{
			ProductID: row.ProductID,
			VariantID: row.ProductAttributeID,
			Quantity:  row.ProductQuantity,
		})
	}
	return items, nil
}
