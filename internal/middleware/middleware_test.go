package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"florist/internal/config"
	"florist/internal/domain/model"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{"sub": 7, "role": "USER", "tv": 2, "iat": now.Unix(), "exp": now.Add(time.Minute).Unix()}
}

type usersStub struct {
	user *model.User
}

func (s usersStub) Create(ctx context.Context, user *model.User) error { return nil }
func (s usersStub) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	return s.user, nil
}
func (s usersStub) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}
func (s usersStub) RecordLogin(context.Context, int64, time.Time) error { return nil }
func (s usersStub) BumpTokenVersion(context.Context, int64) (int, error) { return 0, nil }

func serve(t *testing.T, mws []echo.MiddlewareFunc, authz string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mws...)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestParseBearer(t *testing.T) {
	tok := signToken(t, jwt.SigningMethodHS256, []byte(secret), validClaims())

	id, err := ParseBearer("Bearer "+tok, secret)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: 7, Role: "USER", TokenVersion: 2}, id)

	_, err = ParseBearer("Basic "+tok, secret)
	assert.Error(t, err)

	_, err = ParseBearer("Bearer "+tok, "other-secret")
	assert.Error(t, err)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	_, err = ParseBearer("Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(secret), expired), secret)
	assert.Error(t, err)

	// HS512は受け付けない
	_, err = ParseBearer("Bearer "+signToken(t, jwt.SigningMethodHS512, []byte(secret), validClaims()), secret)
	assert.Error(t, err)
}

func TestTokenVersionGuard(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	tok := "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(secret), validClaims())

	ok := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), TokenVersionGuard(usersStub{user: &model.User{ID: 7, TokenVersion: 2, IsActive: true}})}, tok)
	assert.Equal(t, http.StatusOK, ok.Code)

	// 強制ログアウト後
	stale := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), TokenVersionGuard(usersStub{user: &model.User{ID: 7, TokenVersion: 3, IsActive: true}})}, tok)
	assert.Equal(t, http.StatusUnauthorized, stale.Code)

	inactive := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), TokenVersionGuard(usersStub{user: &model.User{ID: 7, TokenVersion: 2}})}, tok)
	assert.Equal(t, http.StatusUnauthorized, inactive.Code)

	missing := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg)}, "")
	assert.Equal(t, http.StatusUnauthorized, missing.Code)
}

func TestAdminRoleGuard(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}

	user := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), AdminRoleGuard()},
		"Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(secret), validClaims()))
	assert.Equal(t, http.StatusForbidden, user.Code)

	adminClaims := validClaims()
	adminClaims["role"] = "ADMIN"
	admin := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), AdminRoleGuard()},
		"Bearer "+signToken(t, jwt.SigningMethodHS256, []byte(secret), adminClaims))
	assert.Equal(t, http.StatusOK, admin.Code)
}

func TestAdminRoleGuard_UsesRoleFromDB(t *testing.T) {
	cfg := config.Config{JWTSecret: secret}
	claims := validClaims()
	claims["role"] = "ADMIN"
	tok := "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(secret), claims)

	// 降格済み
	demoted := usersStub{user: &model.User{ID: 7, Role: model.RoleUser, TokenVersion: 2, IsActive: true}}
	rec := serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), TokenVersionGuard(demoted), AdminRoleGuard()}, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := usersStub{user: &model.User{ID: 7, Role: model.RoleAdmin, TokenVersion: 2, IsActive: true}}
	rec = serve(t, []echo.MiddlewareFunc{AuthJWT(cfg), TokenVersionGuard(admin), AdminRoleGuard()}, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	e := echo.New()
	e.POST("/api/create-order", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, rl.Middleware())

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/create-order", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestRateLimiter_CleanupDropsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	now = now.Add(4 * time.Minute)
	rl.limiter("10.0.0.2")
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}
