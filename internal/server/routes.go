package server

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/handler"
	"florist/internal/middleware"
	"florist/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminUser    *handler.AdminUserHandler
	Review       *handler.ReviewHandler
	Game         *handler.GameHandler
	AuditLog     *handler.AuditLogHandler
	Relay        *handler.RelayHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, h Handlers, limiter *middleware.RateLimiter) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// 外部に出ていく決済系だけIPごとに絞る
	var limited []echo.MiddlewareFunc
	if limiter != nil {
		limited = append(limited, limiter.Middleware())
	}

	h.Auth.RegisterRoutes(e, cfg, userRepo)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg, userRepo)
	h.Cart.RegisterRoutes(e, cfg, userRepo)
	h.Checkout.RegisterRoutes(e, cfg, userRepo, limited...)
	h.Order.RegisterRoutes(e, cfg, userRepo)
	h.AdminOrder.RegisterRoutes(e, cfg, userRepo)
	h.AdminUser.RegisterRoutes(e)
	h.Review.RegisterRoutes(e, cfg, userRepo)
	h.Game.RegisterRoutes(e, cfg, userRepo)
	h.AuditLog.RegisterRoutes(e, cfg, userRepo)
	h.Relay.RegisterRoutes(e, limited...)
}
