package handler

import (
	"encoding/json"
	"net/http"

	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// POST /api/create-order（ブラウザ用の中継）
type RelayHandler struct {
	uc *usecase.RelayUsecase
}

func NewRelayHandler(uc *usecase.RelayUsecase) *RelayHandler {
	return &RelayHandler{uc: uc}
}

// amount は表示単位（ルピー）。数値でも文字列でも受ける
type CreateOrderRequest struct {
	Amount  json.Number `json:"amount"`
	Receipt string      `json:"receipt"`
}

func (h *RelayHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/api/create-order", h.createOrder, mw...)
}

func (h *RelayHandler) createOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.RelayOrderInput{
		Amount:  amount,
		Receipt: req.Receipt,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
