package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/compactstock/internal/interface/http/dto"
	"github.com/xiebiao/compactstock/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
	"github.com/xiebiao/compactstock/pkg/response"
)

// TokenRevoker Token吊销（redis.TokenBlacklist实现）
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// AuthHandler Token管理
type AuthHandler struct {
	revoker TokenRevoker
}

func NewAuthHandler(revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{revoker: revoker}
}

// Revoke 吊销当前Token
// @Summary      吊销Token
// @Description  把当前请求使用的JWT加入黑名单，直到其自然过期
// @Tags         认证
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=dto.RevokeResponse} "已吊销"
// @Failure      400 {object} response.Response "当前请求不是JWT认证"
// @Failure      401 {object} response.Response "认证失败"
// @Router       /api/v1/auth/revoke [post]
func (h *AuthHandler) Revoke(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Error(c, apperrors.New(apperrors.ErrCodeInvalidParams, "API Key无法吊销，请在配置中更换"))
		return
	}

	if err := h.revoker.Revoke(c.Request.Context(), claims.ID, claims.RemainingTTL()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.RevokeResponse{TokenID: claims.ID})
}
