package middleware

import (
	"errors"
	"strconv"
	"strings"

	"florist/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errInvalidToken = errors.New("invalid token")

// アクセストークンから取り出した本人情報
type Identity struct {
	UserID       int64
	Role         string
	TokenVersion int
}

// Authorization: Bearer <jwt> を検証して Identity を返す
func ParseBearer(header string, secret string) (Identity, error) {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return Identity{}, errInvalidToken
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, errInvalidToken
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || token == nil || !token.Valid {
		return Identity{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, errInvalidToken
	}

	id := Identity{}
	if id.UserID, err = parseUserID(claims["sub"]); err != nil || id.UserID <= 0 {
		return Identity{}, errInvalidToken
	}
	// USER/ADMIN
	if id.Role, ok = claims["role"].(string); !ok || id.Role == "" {
		return Identity{}, errInvalidToken
	}
	if id.TokenVersion, err = parseInt(claims["tv"]); err != nil || id.TokenVersion < 0 {
		return Identity{}, errInvalidToken
	}
	return id, nil
}

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := ParseBearer(c.Request().Header.Get("Authorization"), cfg.JWTSecret)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, id.UserID)
			c.Set(CtxUserRoleKey, id.Role)
			c.Set(CtxTokenVersionKey, id.TokenVersion)

			return next(c)
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}

func parseInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case float64:
		return int(t), nil
	case string:
		i64, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			return 0, err
		}
		return int(i64), nil
	default:
		return 0, errors.New("invalid int")
	}
}
