package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	cfg      config.Config
	userRepo repository.UserRepository
	uc       *usecase.AuthUsecase
}

func NewAdminUserHandler(cfg config.Config, userRepo repository.UserRepository, uc *usecase.AuthUsecase) *AdminUserHandler {
	return &AdminUserHandler{cfg: cfg, userRepo: userRepo, uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo) {
	admin := adminGroup(e, h.cfg, h.userRepo)

	admin.POST("/users/:id/force-logout", withUser(h.forceLogout))
}

// 対象ユーザーの発行済みトークンをすべて無効にする
func (h *AdminUserHandler) forceLogout(c echo.Context, adminID int64) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.uc.ForceLogout(c.Request().Context(), adminID, userID)
	return reply(c, http.StatusOK, res, err)
}
