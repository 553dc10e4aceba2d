package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"florist/internal/config"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// { message: string }
type SuccessResponse struct {
	Message string `json:"message"`
}

// 在庫更新の入力
type InventoryUpdateRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// /admin/products と /admin/inventory をまとめる
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

const maxUploadBytes = 8 << 20

// adminを登録
func (h *AdminProductHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/products", withUser(h.listProducts))
	admin.POST("/products", withUser(h.createProduct))
	admin.PUT("/products/:id", withUser(h.updateProduct))
	admin.DELETE("/products/:id", withUser(h.deleteProduct))
	admin.PUT("/inventory/:product_id", withUser(h.updateInventory))
}

// 非公開も含む。クエリは /products と同じ
func (h *AdminProductHandler) listProducts(c echo.Context, adminID int64) error {
	in, err := bindListProducts(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AdminListProducts(c.Request().Context(), adminID, in)
	return reply(c, http.StatusOK, out, err)
}

func (h *AdminProductHandler) createProduct(c echo.Context, adminID int64) error {
	in, err := bindProductForm(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, in)
	return reply(c, http.StatusCreated, map[string]int64{"id": id}, err)
}

// 画像を送らなければ今の画像のまま
func (h *AdminProductHandler) updateProduct(c echo.Context, adminID int64) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	in, err := bindProductForm(c)
	if err != nil {
		return writeError(c, err)
	}
	err = h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, in)
	return reply(c, http.StatusOK, SuccessResponse{Message: "updated"}, err)
}

func (h *AdminProductHandler) deleteProduct(c echo.Context, adminID int64) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	err = h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id)
	return reply(c, http.StatusOK, SuccessResponse{Message: "deleted"}, err)
}

// 在庫を上書き。理由は必須（調整履歴に残る）
func (h *AdminProductHandler) updateInventory(c echo.Context, adminID int64) error {
	productID, err := pathID(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	var req InventoryUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	err = h.uc.AdminUpdateInventory(c.Request().Context(), adminID, productID, req.Stock, req.Reason)
	return reply(c, http.StatusOK, SuccessResponse{Message: "stock updated"}, err)
}

// multipart/form-data の商品フォーム（name, description, price, stock, is_active, image）
func bindProductForm(c echo.Context) (usecase.AdminProductInput, error) {
	bad := func(msg string) error { return usecase.NewHTTPError(http.StatusBadRequest, msg) }

	price, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("price")))
	if err != nil {
		return usecase.AdminProductInput{}, bad("invalid price")
	}

	// 空なら在庫は変えない（新規は0）
	var stock *int64
	if v := strings.TrimSpace(c.FormValue("stock")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return usecase.AdminProductInput{}, bad("invalid stock")
		}
		stock = &n
	}

	// 未指定なら公開
	isActive := true
	if v := strings.TrimSpace(c.FormValue("is_active")); v != "" {
		isActive, err = strconv.ParseBool(v)
		if err != nil {
			return usecase.AdminProductInput{}, bad("invalid is_active")
		}
	}

	img, err := readImage(c, "image")
	if err != nil {
		return usecase.AdminProductInput{}, err
	}

	return usecase.AdminProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Price:       price,
		Stock:       stock,
		IsActive:    isActive,
		Image:       img,
	}, nil
}

// 画像フィールドを読む。無ければnil
func readImage(c echo.Context, field string) (*usecase.ImageUpload, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+field)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+field)
	}
	defer f.Close()

	// 上限は usecase 側で見るので、ここでは少し余裕を持って読む
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+field)
	}

	return &usecase.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
