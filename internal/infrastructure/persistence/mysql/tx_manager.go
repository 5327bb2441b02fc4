package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/compactstock/internal/domain/stock"
)

// TxManager 事务管理器
// 设计说明:
// 1. 封装GORM的Transaction方法，fn返回error或panic时ROLLBACK，返回nil时COMMIT
// 2. 事务内的仓储通过stock.Tx显式传给fn，不经过context传递*gorm.DB
type TxManager struct {
	db *gorm.DB
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

var _ stock.TxManager = (*TxManager)(nil)

// Transaction 执行事务
//
//	err := txManager.Transaction(ctx, func(ctx context.Context, tx stock.Tx) error {
//	    sibling, ok, err := tx.Variants().FindSibling(ctx, productID, variantID, stock.BoxAttributes)
//	    ...
//	    _, err = tx.Levels().Adjust(ctx, productID, sibling, -qty)
//	    return err // nil则提交，非nil则回滚
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context, tx stock.Tx) error) error {
	return m.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(ctx, &txRepos{db: db})
	})
}

// txRepos 绑定到同一个事务的仓储
type txRepos struct {
	db *gorm.DB
}

func (t *txRepos) Variants() stock.VariantRepository {
	return NewVariantRepository(t.db)
}

func (t *txRepos) Levels() stock.LevelRepository {
	return NewLevelRepository(t.db)
}
