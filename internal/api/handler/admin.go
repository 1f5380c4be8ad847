package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	sweep SweepServiceInterface
}

func NewAdminHandler(sweep SweepServiceInterface) *AdminHandler {
	return &AdminHandler{sweep: sweep}
}

type SweepResponse struct {
	Processed int `json:"processed" example:"3"`
	Failed    int `json:"failed" example:"0"`
}

// RunSweep godoc
// @Summary 期限切れ予約のスイープを実行
// @Description 決済期限を超えたPending予約をキャンセルし座席を解放します（運用用）
// @Tags admin
// @Produce json
// @Success 200 {object} SweepResponse
// @Failure 500 {object} map[string]string
// @Router /admin/sweep [post]
func (h *AdminHandler) RunSweep(c echo.Context) error {
	result, err := h.sweep.RunSweep(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SweepResponse{
		Processed: result.Processed,
		Failed:    result.Failed,
	})
}
