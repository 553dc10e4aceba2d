package handler

import (
	"net/http"
	"strconv"

	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// /products の公開API（有効な商品のみ）
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)
}

func (h *ProductHandler) list(c echo.Context) error {
	in, err := bindListProducts(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// ?page=&limit=&q=&min_price=&max_price=&sort=&in_stock=
func bindListProducts(c echo.Context) (usecase.ListProductsInput, error) {
	bad := func(msg string) error { return usecase.NewHTTPError(http.StatusBadRequest, msg) }

	in := usecase.ListProductsInput{Q: c.QueryParam("q"), Sort: c.QueryParam("sort")}
	var err error
	if in.Page, err = intQuery(c, "page", 1); err != nil {
		return in, bad("invalid page")
	}
	if in.Limit, err = intQuery(c, "limit", 20); err != nil {
		return in, bad("invalid limit")
	}
	if in.MinPrice, err = decimalQuery(c, "min_price"); err != nil {
		return in, bad("invalid min_price")
	}
	if in.MaxPrice, err = decimalQuery(c, "max_price"); err != nil {
		return in, bad("invalid max_price")
	}
	if v := c.QueryParam("in_stock"); v != "" {
		if in.InStockOnly, err = strconv.ParseBool(v); err != nil {
			return in, bad("invalid in_stock")
		}
	}
	return in, nil
}
