package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/domain/model"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

// status: processing / shipped / delivered / cancelled
type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", withUser(h.updateStatus))
}

// ?status=&payment_method=&q=&user_id=&from=&to=&page=&limit=
func (h *AdminOrderHandler) list(c echo.Context) error {
	f := repository.OrderQuery{
		Status:        model.OrderStatus(c.QueryParam("status")),
		PaymentMethod: model.PaymentMethod(c.QueryParam("payment_method")),
		Search:        c.QueryParam("q"),
	}

	var err error
	if f.Page, err = intQuery(c, "page", 1); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	if f.Limit, err = intQuery(c, "limit", 20); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	if f.UserID, err = int64Query(c, "user_id"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}
	if f.From, err = timeQuery(c, "from"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	if f.To, err = timeQuery(c, "to"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}

	out, err := h.uc.List(c.Request().Context(), f)
	return reply(c, http.StatusOK, out, err)
}

// cancelled にすると在庫が戻る
func (h *AdminOrderHandler) updateStatus(c echo.Context, adminID int64) error {
	orderID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req OrderStatusUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	err = h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, usecase.AdminUpdateOrderStatusInput{Status: req.Status})
	return reply(c, http.StatusOK, SuccessResponse{Message: "status updated"}, err)
}
