package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/middleware"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /auth のHTTP
type AuthHandler struct {
	uc *usecase.AuthUsecase
}

// DI
func NewAuthHandler(uc *usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)

	// /auth/me だけログイン必須
	g.GET("/me", withUser(h.me), middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo))
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Register(c.Request().Context(), req)
	return reply(c, http.StatusCreated, out, err)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Login(c.Request().Context(), req)
	return reply(c, http.StatusOK, out, err)
}

func (h *AuthHandler) me(c echo.Context, userID int64) error {
	out, err := h.uc.Me(c.Request().Context(), userID)
	return reply(c, http.StatusOK, out, err)
}
