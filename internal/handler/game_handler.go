package handler

import (
	"net/http"

	"florist/internal/config"
	"florist/internal/domain/model"
	"florist/internal/repository"
	"florist/internal/usecase"

	"github.com/labstack/echo/v4"
)

type GameHandler struct {
	uc *usecase.GameUsecase
}

func NewGameHandler(uc *usecase.GameUsecase) *GameHandler {
	return &GameHandler{uc: uc}
}

// 2回目のプレイは409 + 当日の結果
type GameConflictResponse struct {
	Error  string           `json:"error"`
	Result model.GameResult `json:"result"`
}

func (h *GameHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := customerGroup(e, "/game", cfg, userRepo)

	g.POST("/play", withUser(h.play))
	g.GET("/today", withUser(h.today))
}

func (h *GameHandler) play(c echo.Context, userID int64) error {
	var req usecase.PlayGameInput
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	res, err := h.uc.Play(c.Request().Context(), userID, req)
	if he, ok := usecase.AsHTTPError(err); ok && he.Status == http.StatusConflict && res.PlayedOn != "" {
		return c.JSON(http.StatusConflict, GameConflictResponse{Error: he.Message, Result: res})
	}
	return reply(c, http.StatusOK, res, err)
}

func (h *GameHandler) today(c echo.Context, userID int64) error {
	res, err := h.uc.Today(c.Request().Context(), userID)
	return reply(c, http.StatusOK, res, err)
}
