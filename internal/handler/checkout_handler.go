package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/domain/model"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	Shipping      model.ShippingDetails `json:"shipping"`
	PaymentMethod string                `json:"payment_method"`
}

// Razorpayウィジェットの handler(response) の中身をそのまま送ってもらう
type PaymentSuccessRequest struct {
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

// startMW は POST /checkout にだけ付く（レート制限など）
func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, startMW ...echo.MiddlewareFunc) {
	g := customerGroup(e, "/checkout", cfg, userRepo)

	g.POST("", withUser(h.start), startMW...)
	g.GET("/:id", withUser(h.get))
	g.POST("/:id/success", withUser(h.success))
	g.POST("/:id/cancel", withUser(h.cancel))
}

func (h *CheckoutHandler) start(c echo.Context, userID int64) error {
	var req CheckoutRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Start(c.Request().Context(), userID, usecase.CheckoutInput{
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	})
	// COD・0円はここで注文まで済むので201
	status := http.StatusOK
	if err == nil && out.OrderID != nil {
		status = http.StatusCreated
	}
	return reply(c, status, out, err)
}

func (h *CheckoutHandler) get(c echo.Context, userID int64) error {
	out, err := h.uc.GetSession(c.Request().Context(), userID, c.Param("id"))
	return reply(c, http.StatusOK, out, err)
}

func (h *CheckoutHandler) success(c echo.Context, userID int64) error {
	var req PaymentSuccessRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ConfirmPayment(c.Request().Context(), userID, c.Param("id"), usecase.ConfirmPaymentInput{
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Signature: req.RazorpaySignature,
	})
	return reply(c, http.StatusOK, out, err)
}

// ウィジェットを閉じた（ondismiss）
func (h *CheckoutHandler) cancel(c echo.Context, userID int64) error {
	out, err := h.uc.CancelPayment(c.Request().Context(), userID, c.Param("id"))
	return reply(c, http.StatusOK, out, err)
}
