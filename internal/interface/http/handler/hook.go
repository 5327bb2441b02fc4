package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	"github.com/xiebiao/compactstock/internal/interface/http/dto"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
	"github.com/xiebiao/compactstock/pkg/response"
)

// StatusChangeHandler 订单状态变更处理（mirror.Handler实现）
type StatusChangeHandler interface {
	Handle(ctx context.Context, evt *stock.StatusChangeEvent) bool
}

// HookHandler 商城钩子HTTP处理器
// Handler只负责解析请求和返回响应，同步逻辑在application层
type HookHandler struct {
	mirror StatusChangeHandler
}

// NewHookHandler 创建钩子处理器
func NewHookHandler(mirror StatusChangeHandler) *HookHandler {
	return &HookHandler{mirror: mirror}
}

// OrderStatusUpdate 订单状态变更钩子
// @Summary      订单状态变更
// @Description  商城订单状态变更后调用，同步对侧组合（带盒/不带盒）库存
// @Tags         钩子
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     ApiKeyAuth
// @Param        request body dto.OrderStatusRequest true "订单状态变更事件"
// @Success      200 {object} response.Response{data=dto.OrderStatusResponse} "处理完成（applied=false表示无需调整或已回滚）"
// @Failure      400 {object} response.Response "请求体格式错误"
// @Failure      401 {object} response.Response "认证失败"
// @Router       /api/v1/hooks/order-status [post]
func (h *HookHandler) OrderStatusUpdate(c *gin.Context) {
	var req dto.OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.WithCode(err, apperrors.ErrCodeBindError, apperrors.ErrBindError.Message))
		return
	}

	// 处理器吸收所有失败，这里只转发结果
	applied := h.mirror.Handle(c.Request.Context(), req.ToEvent())

	response.Success(c, &dto.OrderStatusResponse{Applied: applied})
}
