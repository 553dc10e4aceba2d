package handler

import (
	"net/http"
	"strconv"

	"florist/internal/config"
	"florist/internal/middleware"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ログイン必須 + token_version一致
func customerGroup(e *echo.Echo, prefix string, cfg config.Config, userRepo repository.UserRepository) *echo.Group {
	return e.Group(prefix, middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
}

// /admin 配下は customerGroup + ADMIN限定
func adminGroup(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) *echo.Group {
	g := customerGroup(e, "/admin", cfg, userRepo)
	g.Use(middleware.AdminRoleGuard())
	return g
}

// AuthJWT が入れた user_id
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// ログイン中のユーザーID付きで呼ばれるハンドラ
type userHandler func(c echo.Context, userID int64) error

func withUser(fn userHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := getUserIDFromContext(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}
		return fn(c, id)
	}
}

// パスの :name を正のIDとして読む
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func bindJSON(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return usecase.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	return nil
}

func reply(c echo.Context, status int, out any, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status, out)
}
