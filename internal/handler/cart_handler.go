package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cart。更新系もカート全体を返す
type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type ApplyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := customerGroup(e, "/cart", cfg, userRepo)

	g.GET("", withUser(h.getCart))
	g.POST("", withUser(h.addToCart))
	g.DELETE("", withUser(h.clear))
	g.PUT("/coupon", withUser(h.applyCoupon))
	g.DELETE("/coupon", withUser(h.removeCoupon))
	g.PATCH("/:id", withUser(h.patchItem))
	g.DELETE("/:id", withUser(h.deleteItem))
}

func (h *CartHandler) getCart(c echo.Context, userID int64) error {
	out, err := h.uc.GetCart(c.Request().Context(), userID)
	return reply(c, http.StatusOK, out, err)
}

// quantity省略時は1
func (h *CartHandler) addToCart(c echo.Context, userID int64) error {
	var req AddCartRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	return reply(c, http.StatusOK, out, err)
}

// quantity < 1 は削除と同じ
func (h *CartHandler) patchItem(c echo.Context, userID int64) error {
	itemID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req UpdateCartItemRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.SetQuantity(c.Request().Context(), userID, itemID, usecase.UpdateCartItemInput{Quantity: req.Quantity})
	return reply(c, http.StatusOK, out, err)
}

func (h *CartHandler) deleteItem(c echo.Context, userID int64) error {
	itemID, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.RemoveItem(c.Request().Context(), userID, itemID)
	return reply(c, http.StatusOK, out, err)
}

func (h *CartHandler) clear(c echo.Context, userID int64) error {
	err := h.uc.Clear(c.Request().Context(), userID)
	return reply(c, http.StatusOK, SuccessResponse{Message: "cleared"}, err)
}

func (h *CartHandler) applyCoupon(c echo.Context, userID int64) error {
	var req ApplyCouponRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ApplyCoupon(c.Request().Context(), userID, req.Code)
	return reply(c, http.StatusOK, out, err)
}

func (h *CartHandler) removeCoupon(c echo.Context, userID int64) error {
	out, err := h.uc.RemoveCoupon(c.Request().Context(), userID)
	return reply(c, http.StatusOK, out, err)
}
