package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/audit-logs", withUser(h.list))
}

// ?action=&resource_type=&resource_id=&actor_user_id=&from=&to=&page=&limit=
func (h *AuditLogHandler) list(c echo.Context, adminID int64) error {
	in := usecase.AuditLogListInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
	}

	var err error
	if in.Page, err = intQuery(c, "page", 1); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
	}
	if in.Limit, err = intQuery(c, "limit", 20); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	if in.ResourceID, err = int64Query(c, "resource_id"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
	}
	if in.ActorUserID, err = int64Query(c, "actor_user_id"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
	}
	if in.From, err = timeQuery(c, "from"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
	}
	if in.To, err = timeQuery(c, "to"); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
	}

	out, err := h.uc.List(c.Request().Context(), adminID, in)
	return reply(c, http.StatusOK, out, err)
}
