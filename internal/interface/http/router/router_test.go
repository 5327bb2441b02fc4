package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	"github.com/xiebiao/compactstock/internal/interface/http/handler"
	"github.com/xiebiao/compactstock/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
	"github.com/xiebiao/compactstock/pkg/jwt"
)

const (
	hookPath   = "/api/v1/hooks/order-status"
	revokePath = "/api/v1/auth/revoke"
	testAPIKey = "ps-module-key"
)

// stubMirror 记录收到的事件，返回预设结果
type stubMirror struct {
	mu      sync.Mutex
	events  []*stock.StatusChangeEvent
	applied bool
}

func (s *stubMirror) Handle(ctx context.Context, evt *stock.StatusChangeEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.applied
}

// memBlacklist 内存版吊销名单
type memBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func (b *memBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return false, b.err
	}
	_, ok := b.revoked[tokenID]
	return ok, nil
}

func (b *memBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[tokenID] = ttl
	return nil
}

type testEnv struct {
	engine    *gin.Engine
	mirror    *stubMirror
	blacklist *memBlacklist
	jwt       *jwt.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testAPIKey), bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{
		mirror:    &stubMirror{applied: true},
		blacklist: &memBlacklist{revoked: map[string]time.Duration{}},
		jwt:       jwt.NewManager("test-secret", time.Hour),
	}
	env.engine = New(Options{
		Mode:           gin.TestMode,
		Logger:         zap.NewNop(),
		HookHandler:    handler.NewHookHandler(env.mirror),
		AuthHandler:    handler.NewAuthHandler(env.blacklist),
		AuthMiddleware: middleware.NewAuthMiddleware(env.jwt, env.blacklist, string(hash)),
	})
	return env
}

func (e *testEnv) token(t *testing.T, scopes ...string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken("prestashop-prod", scopes)
	require.NoError(t, err)
	return tok
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var resp apiResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodGet, "/ping", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/ping", "", map[string]string{"X-Request-ID": "req-42"})

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/metrics", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHook_WithAPIKey(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, hookPath,
		`{"id_order":12,"newOrderStatus":{"id":2}}`,
		map[string]string{"X-Api-Key": testAPIKey})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Code)
	assert.JSONEq(t, `{"applied":true}`, string(resp.Data))

	require.Len(t, env.mirror.events, 1)
	assert.Equal(t, int64(12), env.mirror.events[0].OrderID)
	assert.Equal(t, stock.StatusPaymentAccepted, env.mirror.events[0].NewStatus.ID)
}

func TestHook_NotApplied(t *testing.T) {
	env := newTestEnv(t)
	env.mirror.applied = false

	w, resp := env.do(t, http.MethodPost, hookPath,
		`{"id_order":12,"newOrderStatus":{"id":5}}`,
		map[string]string{"X-Api-Key": testAPIKey})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":false}`, string(resp.Data))
}

func TestHook_MissingStatusIsPassedThrough(t *testing.T) {
	env := newTestEnv(t)
	env.mirror.applied = false

	w, resp := env.do(t, http.MethodPost, hookPath, `{"id_order":12}`, map[string]string{"X-Api-Key": testAPIKey})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":false}`, string(resp.Data))
	require.Len(t, env.mirror.events, 1)
	assert.Nil(t, env.mirror.events[0].NewStatus)
}

func TestHook_StringIDs(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, hookPath,
		`{"id_order":"12","newOrderStatus":{"id":"2"}}`,
		map[string]string{"X-Api-Key": testAPIKey})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":true}`, string(resp.Data))
	require.Len(t, env.mirror.events, 1)
	assert.Equal(t, int64(12), env.mirror.events[0].OrderID)
	assert.Equal(t, stock.StatusPaymentAccepted, env.mirror.events[0].NewStatus.ID)
}

func TestHook_NonNumericIDsNotApplied(t *testing.T) {
	env := newTestEnv(t)
	env.mirror.applied = false

	w, resp := env.do(t, http.MethodPost, hookPath,
		`{"id_order":"abc","newOrderStatus":{"id":"2"}}`,
		map[string]string{"X-Api-Key": testAPIKey})

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":false}`, string(resp.Data))
	require.Len(t, env.mirror.events, 1)
	assert.Zero(t, env.mirror.events[0].OrderID)
}

func TestHook_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, hookPath, `{"id_order":`, map[string]string{"X-Api-Key": testAPIKey})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeBindError, resp.Code)
	assert.Empty(t, env.mirror.events)
}

func TestHook_Authentication(t *testing.T) {
	env := newTestEnv(t)

	expired, err := jwt.NewManager("test-secret", -time.Minute).GenerateToken("prestashop-prod", []string{jwt.ScopeHookWrite})
	require.NoError(t, err)
	foreign, err := jwt.NewManager("other-secret", time.Hour).GenerateToken("prestashop-prod", []string{jwt.ScopeHookWrite})
	require.NoError(t, err)

	tests := []struct {
		name     string
		headers  map[string]string
		wantCode int
	}{
		{"无认证信息", nil, apperrors.ErrCodeUnauthorized},
		{"错误的API Key", map[string]string{"X-Api-Key": "guess"}, apperrors.ErrCodeInvalidAPIKey},
		{"格式错误", map[string]string{"Authorization": "Token abc"}, apperrors.ErrCodeInvalidToken},
		{"签名不匹配", bearer(foreign), apperrors.ErrCodeInvalidToken},
		{"已过期", bearer(expired), apperrors.ErrCodeTokenExpired},
		{"缺少授权范围", bearer(env.token(t, "stock:read")), apperrors.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := env.do(t, http.MethodPost, hookPath, `{"id_order":12,"newOrderStatus":{"id":2}}`, tt.headers)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
	assert.Empty(t, env.mirror.events)
}

func TestHook_WithJWT(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, hookPath,
		`{"id_order":12,"newOrderStatus":{"id":2}}`,
		bearer(env.token(t, jwt.ScopeHookWrite)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"applied":true}`, string(resp.Data))
}

func TestHook_APIKeyDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.engine = New(Options{
		Mode:           gin.TestMode,
		Logger:         zap.NewNop(),
		HookHandler:    handler.NewHookHandler(env.mirror),
		AuthMiddleware: middleware.NewAuthMiddleware(env.jwt, env.blacklist, ""),
	})

	w, resp := env.do(t, http.MethodPost, hookPath, `{}`, map[string]string{"X-Api-Key": testAPIKey})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidAPIKey, resp.Code)
}

func TestHook_BlacklistUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.blacklist.err = apperrors.WithCode(assert.AnError, apperrors.ErrCodeRedisError, "检查黑名单失败")

	w, resp := env.do(t, http.MethodPost, hookPath, `{}`, bearer(env.token(t, jwt.ScopeHookWrite)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.ErrCodeRedisError, resp.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error(), "内部错误不返回给调用方")
}

func TestRevoke(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, jwt.ScopeHookWrite)

	w, resp := env.do(t, http.MethodPost, revokePath, "", bearer(tok))
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		TokenID string `json:"token_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Contains(t, env.blacklist.revoked, data.TokenID)
	assert.Greater(t, env.blacklist.revoked[data.TokenID], 50*time.Minute)

	// 吊销后不能再调用钩子
	w, resp = env.do(t, http.MethodPost, hookPath, `{"id_order":12,"newOrderStatus":{"id":2}}`, bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.ErrCodeTokenRevoked, resp.Code)
	assert.Empty(t, env.mirror.events)
}

func TestRevoke_WithAPIKey(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, revokePath, "", map[string]string{"X-Api-Key": testAPIKey})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	assert.Empty(t, env.blacklist.revoked)
}
