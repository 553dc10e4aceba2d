package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 注文の作成は /checkout 経由のみ
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := customerGroup(e, "/orders", cfg, userRepo)

	g.GET("", withUser(h.list))
	g.GET("/:id", withUser(h.detail))
}

func (h *OrderHandler) list(c echo.Context, userID int64) error {
	page, err := intQuery(c, "page", 1)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	limit, err := intQuery(c, "limit", 20)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.ListForCustomer(c.Request().Context(), userID, page, limit)
	return reply(c, http.StatusOK, out, err)
}

// 他人の注文は404
func (h *OrderHandler) detail(c echo.Context, userID int64) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.GetForCustomer(c.Request().Context(), userID, id)
	return reply(c, http.StatusOK, out, err)
}
