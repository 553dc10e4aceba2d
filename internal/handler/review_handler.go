package handler

import (
	"net/http"
	"strconv"
	"strings"

	"florist/internal/config"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

func (h *ReviewHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	// 投稿と一覧は誰でも
	e.GET("/reviews", h.listApproved)
	e.POST("/reviews", h.submit)

	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/reviews", withUser(h.adminList))
	admin.PUT("/reviews/:id/approve", withUser(h.approve))
	admin.DELETE("/reviews/:id", withUser(h.delete))
}

// multipart/form-data（customer_name, customer_email, rating, review_text, product_id, photo）
func (h *ReviewHandler) submit(c echo.Context) error {
	rating, err := strconv.Atoi(strings.TrimSpace(c.FormValue("rating")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid rating"})
	}

	var productID *int64
	if v := strings.TrimSpace(c.FormValue("product_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
		}
		productID = &id
	}

	photo, err := readImage(c, "photo")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Submit(c.Request().Context(), usecase.SubmitReviewInput{
		CustomerName:  c.FormValue("customer_name"),
		CustomerEmail: c.FormValue("customer_email"),
		Rating:        rating,
		ReviewText:    c.FormValue("review_text"),
		ProductID:     productID,
		Photo:         photo,
	})
	return reply(c, http.StatusCreated, out, err)
}

func (h *ReviewHandler) listApproved(c echo.Context) error {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}

	out, err := h.uc.ListApproved(c.Request().Context(), limit)
	return reply(c, http.StatusOK, out, err)
}

// 未承認も含めて全部
func (h *ReviewHandler) adminList(c echo.Context, adminID int64) error {
	out, err := h.uc.AdminList(c.Request().Context(), adminID)
	return reply(c, http.StatusOK, out, err)
}

func (h *ReviewHandler) approve(c echo.Context, adminID int64) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	err = h.uc.Approve(c.Request().Context(), adminID, id)
	return reply(c, http.StatusOK, SuccessResponse{Message: "approved"}, err)
}

// 写真もストレージから消える
func (h *ReviewHandler) delete(c echo.Context, adminID int64) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	err = h.uc.Delete(c.Request().Context(), adminID, id)
	return reply(c, http.StatusOK, SuccessResponse{Message: "deleted"}, err)
}
