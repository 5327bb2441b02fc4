package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建订单历史仓储
func NewHistoryRepository(db *gorm.DB) stock.HistoryReader {
	return &historyRepository{db: db}
}

// CountByStatuses SELECT COUNT(*) FROM order_history WHERE id_order = ? AND id_order_state IN (...)
func (r *historyRepository) CountByStatuses(ctx context.Context, orderID int64, statuses []stock.StatusID) (int64, error) {
	if len(statuses) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrderHistory{}).
		Where("id_order = ? AND id_order_state IN ?", orderID, statusValues(statuses)).
		Count(&count).Error
	if err != nil {
		return 0, apperrors.WithCode(err, apperrors.ErrCodeDatabaseError, "查询订单历史失败")
	}
	return count, nil
}
