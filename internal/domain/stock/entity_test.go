package stock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusChangeEvent_Validate(t *testing.T) {
	tests := []struct {
		name  string
		event *StatusChangeEvent
		ok    bool
	}{
		{"合法事件", &StatusChangeEvent{OrderID: 1, NewStatus: &OrderState{ID: 2}}, true},
		{"nil事件", nil, false},
		{"缺少状态对象", &StatusChangeEvent{OrderID: 1}, false},
		{"状态ID为0", &StatusChangeEvent{OrderID: 1, NewStatus: &OrderState{ID: 0}}, false},
		{"状态ID为负", &StatusChangeEvent{OrderID: 1, NewStatus: &OrderState{ID: -2}}, false},
		{"订单ID为0", &StatusChangeEvent{OrderID: 0, NewStatus: &OrderState{ID: 2}}, false},
		{"订单ID为负", &StatusChangeEvent{OrderID: -5, NewStatus: &OrderState{ID: 2}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidEvent))
		})
	}
}

func TestLineItem_Valid(t *testing.T) {
	assert.True(t, LineItem{ProductID: 100, VariantID: 100, Quantity: 1}.Valid())
	assert.False(t, LineItem{ProductID: 0, VariantID: 100, Quantity: 1}.Valid())
	assert.False(t, LineItem{ProductID: 100, VariantID: 0, Quantity: 1}.Valid())
	assert.False(t, LineItem{ProductID: 100, VariantID: 100, Quantity: 0}.Valid())
	assert.False(t, LineItem{ProductID: 100, VariantID: 100, Quantity: -1}.Valid())
}

func TestDistinctProductIDs(t *testing.T) {
	items := []LineItem{
		{ProductID: 300, VariantID: 1, Quantity: 1},
		{ProductID: 100, VariantID: 2, Quantity: 1},
		{ProductID: 300, VariantID: 3, Quantity: 2},
		{ProductID: 0, VariantID: 4, Quantity: 1},
		{ProductID: -1, VariantID: 5, Quantity: 1},
	}

	assert.Equal(t, []int64{300, 100}, DistinctProductIDs(items))
	assert.Empty(t, DistinctProductIDs(nil))
}

func TestAdjustment_QuantityAfter(t *testing.T) {
	adj := Adjustment{QuantityBefore: 1, Delta: -3}
	assert.Equal(t, -2, adj.QuantityAfter())
}
