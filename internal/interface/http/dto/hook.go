package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/xiebiao/compactstock/internal/domain/stock"
)

// OrderStatusRequest 订单状态变更钩子请求
// 字段名与商城钩子参数保持一致：{"id_order":12,"newOrderStatus":{"id":2}}
//
// 不使用binding校验：字段缺失或类型不对不是参数错误，交给处理器判定为"不处理"
type OrderStatusRequest struct {
	OrderID        LooseInt     `json:"id_order" swaggertype:"integer" example:"12"`
	NewOrderStatus *OrderStatus `json:"newOrderStatus"`
}

type OrderStatus struct {
	ID LooseInt `json:"id" swaggertype:"integer" example:"2"`
}

// UnmarshalJSON newOrderStatus不是对象时按缺失处理（ID为0）
func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	s.ID = 0
	if len(bytes.TrimSpace(data)) == 0 || data[0] != '{' {
		return nil
	}
	var raw struct {
		ID LooseInt `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	return nil
}

// LooseInt 按整数强制转换读取的ID
//
//	12 / 12.9 / "12" / " 12abc" → 12
//	"abc" / true / null / [] / {} → 0
//
// 商城模块里的ID可能以字符串形式传入；转换不出正整数的值最终被处理器当作非法事件
type LooseInt int64

func (n *LooseInt) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = LooseInt(leadingInt(s))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if v, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			*n = LooseInt(v)
			return nil
		}
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil || math.IsNaN(f) || f > math.MaxInt64 || f < math.MinInt64 {
			return nil
		}
		*n = LooseInt(int64(f))
	}
	return nil
}

// leadingInt 取字符串开头的整数部分，没有数字时为0
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0
	}
	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ToEvent 转换为领域事件
func (r *OrderStatusRequest) ToEvent() *stock.StatusChangeEvent {
	evt := &stock.StatusChangeEvent{OrderID: int64(r.OrderID)}
	if r.NewOrderStatus != nil {
		evt.NewStatus = &stock.OrderState{ID: stock.StatusID(r.NewOrderStatus.ID)}
	}
	return evt
}

// OrderStatusResponse 钩子返回值
type OrderStatusResponse struct {
	Applied bool `json:"applied" example:"true"`
}

// RevokeResponse Token吊销结果
type RevokeResponse struct {
	TokenID string `json:"token_id"`
}
