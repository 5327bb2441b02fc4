package stock

import "context"

// 仓储接口（依赖倒置）
// 所有表都属于宿主平台，本服务只读取，唯一的写操作是对侧组合库存的相对调整。

// HistoryReader 订单状态历史（只读）
type HistoryReader interface {
	// CountByStatuses 统计订单历史中处于给定状态集合的记录数
	CountByStatuses(ctx context.Context, orderID int64, statuses []StatusID) (int64, error)
}

// OrderReader 订单明细（只读）
type OrderReader interface {
	// ListLineItems 查询订单明细，订单不存在时返回空切片
	ListLineItems(ctx context.Context, orderID int64) ([]LineItem, error)
}

// CatalogReader 分类归属（只读）
type CatalogReader interface {
	// FilterInCategory 一次查询返回属于该分类的商品ID集合
	FilterInCategory(ctx context.Context, productIDs []int64, categoryID int64) (map[int64]bool, error)
}

// VariantRepository 商品组合
type VariantRepository interface {
	// FindSibling 查找同一商品下带指定属性、且ID不等于variantID的组合，多条时取第一条
	FindSibling(ctx context.Context, productID, variantID int64, attributeIDs []int64) (int64, bool, error)
}

// LevelRepository 组合库存
type LevelRepository interface {
	// CurrentQuantity 读取当前库存（事务内加行锁），记录不存在时found=false
	CurrentQuantity(ctx context.Context, productID, variantID int64) (quantity int, found bool, err error)

	// Adjust 相对调整库存，不做下限校验，返回受影响行数
	Adjust(ctx context.Context, productID, variantID int64, delta int) (int64, error)
}

// Tx 事务内可用的仓储
type Tx interface {
	Variants() VariantRepository
	Levels() LevelRepository
}

// TxManager 事务管理器
// fn返回error或panic时回滚，返回nil时提交
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// OrderLocker 订单级互斥锁，防止同一订单的两个状态事件并发处理
type OrderLocker interface {
	// TryLock 不等待；acquired=false表示已被占用，unlock只在acquired=true时有效
	TryLock(ctx context.Context, orderID int64) (unlock func(context.Context) error, acquired bool, err error)
}
