package mysql

// 商城表的GORM模型（只声明用到的列）
// 表名由NamingStrategy生成：前缀 + 结构体名的蛇形单数形式，
// 如 ps_ + OrderHistory → ps_order_history

// OrderHistory 订单状态历史
type OrderHistory struct {
	IDOrderHistory int64 `gorm:"column:id_order_history;primaryKey"`
	IDOrder        int64 `gorm:"column:id_order"`
	IDOrderState   int64 `gorm:"column:id_order_state"`
}

// OrderDetail 订单明细
type OrderDetail struct {
	IDOrderDetail      int64 `gorm:"column:id_order_detail;primaryKey"`
	IDOrder            int64 `gorm:"column:id_order"`
	ProductID          int64 `gorm:"column:product_id"`
	ProductAttributeID int64 `gorm:"column:product_attribute_id"`
	ProductQuantity    int   `gorm:"column:product_quantity"`
}

// CategoryProduct 商品分类关联
type CategoryProduct struct {
	IDCategory int64 `gorm:"column:id_category;primaryKey"`
	IDProduct  int64 `gorm:"column:id_product;primaryKey"`
}

// ProductAttribute 商品组合
type ProductAttribute struct {
	IDProductAttribute int64 `gorm:"column:id_product_attribute;primaryKey"`
	IDProduct          int64 `gorm:"column:id_product"`
}

// ProductAttributeCombination 组合与属性值关联
type ProductAttributeCombination struct {
	IDAttribute        int64 `gorm:"column:id_attribute;primaryKey"`
	IDProductAttribute int64 `gorm:"column:id_product_attribute;primaryKey"`
}

// StockAvailable 组合可用库存
type StockAvailable struct {
	IDStockAvailable   int64 `gorm:"column:id_stock_available;primaryKey"`
	IDProduct          int64 `gorm:"column:id_product"`
	IDProductAttribute int64 `gorm:"column:id_product_attribute"`
	Quantity           int   `gorm:"column:quantity"`
}
