package stock

const (
	// TargetCategoryID 需要同步库存的商品分类（CD唱片）
	TargetCategoryID int64 = 1200

	// AttributeWithBox "带盒"属性ID
	AttributeWithBox int64 = 10

	// AttributeWithoutBox "不带盒"属性ID
	AttributeWithoutBox int64 = 11
)

// BoxAttributes 区分两个组合的属性ID
var BoxAttributes = []int64{AttributeWithBox, AttributeWithoutBox}

// OrderState 事件中的状态对象
type OrderState struct {
	ID StatusID `json:"id"`
}

// StatusChangeEvent 订单状态变更事件
// 字段名与宿主平台actionOrderStatusPostUpdate钩子参数保持一致
type StatusChangeEvent struct {
	OrderID   int64       `json:"id_order"`
	NewStatus *OrderState `json:"newOrderStatus"`
}

// Validate 校验事件
// 状态对象缺失、状态ID或订单ID非正数都视为非法事件
func (e *StatusChangeEvent) Validate() error {
	if e == nil || e.NewStatus == nil {
		return ErrInvalidEvent
	}
	if e.NewStatus.ID <= 0 {
		return ErrInvalidEvent
	}
	if e.OrderID <= 0 {
		return ErrInvalidEvent
	}
	return nil
}

// LineItem 订单明细（宿主order_detail表，只读）
type LineItem struct {
	ProductID int64 // 商品ID
	VariantID int64 // 组合ID（product_attribute_id）
	Quantity  int   // 购买数量
}

// Valid 商品ID、组合ID、数量都必须为正
func (i LineItem) Valid() bool {
	return i.ProductID > 0 && i.VariantID > 0 && i.Quantity > 0
}

// Adjustment 一次对侧组合库存调整
type Adjustment struct {
	ProductID          int64 `json:"product_id"`
	PurchasedVariantID int64 `json:"purchased_variant_id"`
	SiblingVariantID   int64 `json:"sibling_variant_id"`
	Delta              int   `json:"delta"`
	QuantityBefore     int   `json:"quantity_before"`
}

// QuantityAfter 调整后的库存（允许为负）
func (a Adjustment) QuantityAfter() int {
	return a.QuantityBefore + a.Delta
}

// DistinctProductIDs 提取明细中去重后的有效商品ID（保持首次出现顺序）
func DistinctProductIDs(items []LineItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if it.ProductID <= 0 {
			continue
		}
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}
