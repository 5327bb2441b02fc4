package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/compactstock/pkg/errors"
	"github.com/xiebiao/compactstock/pkg/jwt"
	"github.com/xiebiao/compactstock/pkg/response"
)

const (
	apiKeyHeader = "X-Api-Key"

	ctxKeyClaims     = "jwt_claims"
	ctxKeySubject    = "auth_subject"
	ctxKeyAuthMethod = "auth_method"

	AuthMethodJWT    = "jwt"
	AuthMethodAPIKey = "api_key"
)

// RevocationChecker 查询Token是否已吊销（redis.TokenBlacklist实现）
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware 钩子调用方认证
// 设计说明：
// 1. 商城模块用X-Api-Key调用（模块配置里只能放一个静态密钥）
// 2. 运维脚本、其他服务用Bearer JWT，需要hooks:write授权范围，可以单独吊销
// 3. API Key只保存bcrypt哈希，配置泄露不会泄露密钥本身
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	revocation RevocationChecker
	apiKeyHash []byte
}

// NewAuthMiddleware 创建认证中间件
// apiKeyHash为空时只接受JWT
func NewAuthMiddleware(jwtManager *jwt.Manager, revocation RevocationChecker, apiKeyHash string) *AuthMiddleware {
	m := &AuthMiddleware{
		jwtManager: jwtManager,
		revocation: revocation,
	}
	if apiKeyHash != "" {
		m.apiKeyHash = []byte(apiKeyHash)
	}
	return m
}

// RequireScope 要求JWT带有指定授权范围，或提供正确的API Key
//
//	hooks := v1.Group("/hooks")
//	hooks.Use(authMiddleware.RequireScope(jwt.ScopeHookWrite))
func (m *AuthMiddleware) RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(apiKeyHeader); key != "" {
			m.checkAPIKey(c, key)
			return
		}

		// Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Abort(c, apperrors.ErrInvalidToken)
			return
		}

		claims, err := m.jwtManager.ParseToken(parts[1])
		if err != nil {
			response.Abort(c, err)
			return
		}

		if m.revocation != nil {
			revoked, err := m.revocation.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				response.Abort(c, err)
				return
			}
			if revoked {
				response.Abort(c, apperrors.ErrTokenRevoked)
				return
			}
		}

		if scope != "" && !claims.HasScope(scope) {
			response.Abort(c, apperrors.New(apperrors.ErrCodeUnauthorized, "Token缺少授权范围: "+scope))
			return
		}

		c.Set(ctxKeyClaims, claims)
		c.Set(ctxKeySubject, claims.Subject)
		c.Set(ctxKeyAuthMethod, AuthMethodJWT)
		c.Next()
	}
}

func (m *AuthMiddleware) checkAPIKey(c *gin.Context, key string) {
	if m.apiKeyHash == nil {
		response.Abort(c, apperrors.ErrInvalidAPIKey)
		return
	}
	if err := bcrypt.CompareHashAndPassword(m.apiKeyHash, []byte(key)); err != nil {
		response.Abort(c, apperrors.ErrInvalidAPIKey)
		return
	}

	c.Set(ctxKeySubject, "api-key")
	c.Set(ctxKeyAuthMethod, AuthMethodAPIKey)
	c.Next()
}

// GetClaims 当前请求的JWT Claims，API Key认证时为nil
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, exists := c.Get(ctxKeyClaims); exists {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetSubject 当前调用方标识
func GetSubject(c *gin.Context) string {
	return c.GetString(ctxKeySubject)
}

// GetAuthMethod 认证方式（jwt / api_key）
func GetAuthMethod(c *gin.Context) string {
	return c.GetString(ctxKeyAuthMethod)
}
