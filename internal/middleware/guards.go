package middleware

import (
	"net/http"

	"florist/internal/domain/model"
	"florist/internal/repository"

	"github.com/labstack/echo/v4"
)

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}

// TokenVersionGuard はJWTのtvとDBのtoken_versionを突き合わせる。
// 強制ログアウト・無効化されたユーザーはここで401になる。
// ロールもDBの値で上書きするので、降格はトークン失効を待たずに効く。
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(CtxUserIDKey).(int64)
			if !ok || userID <= 0 {
				return unauthorized(c)
			}
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return unauthorized(c)
			}

			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil || !user.IsActive || user.TokenVersion != tv {
				return unauthorized(c)
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}

// AdminRoleGuard は管理画面用。ADMIN以外は403
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			switch role {
			case "":
				return unauthorized(c)
			case string(model.RoleAdmin):
				return next(c)
			default:
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
		}
	}
}
