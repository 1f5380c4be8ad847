package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

type AvailabilityHandler struct {
	service AvailabilityServiceInterface
}

func NewAvailabilityHandler(s AvailabilityServiceInterface) *AvailabilityHandler {
	return &AvailabilityHandler{service: s}
}

type CheckAvailabilityRequest struct {
	FlightID    string   `json:"flight_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Cabin       string   `json:"cabin" validate:"required,oneof=economy business first" example:"economy"`
	SeatNumbers []string `json:"seat_numbers" validate:"required,min=1" example:"12A,12B"`
}

type CheckAvailabilityResponse struct {
	Available   bool                       `json:"available"`
	SeatNumbers []string                   `json:"seat_numbers,omitempty"`
	Conflicts   []application.SeatConflict `json:"conflicts,omitempty"`
}

type SeatResponse struct {
	ID         string `json:"id"`
	SeatNumber string `json:"seat_number" example:"12A"`
	Cabin      string `json:"cabin" example:"economy"`
	Row        int    `json:"row" example:"12"`
	Column     string `json:"column" example:"A"`
}

type AvailabilityCountResponse struct {
	FlightID  string `json:"flight_id"`
	Cabin     string `json:"cabin"`
	Available int    `json:"available"`
}

// Check godoc
// @Summary 空席チェック
// @Description 指定座席が現時点で予約可能かを返します（助言値であり確保ではありません）
// @Tags availability
// @Accept json
// @Produce json
// @Param X-User-ID header string false "ユーザーID（自セッションの保留座席を可用扱いにする）"
// @Param request body CheckAvailabilityRequest true "チェック対象"
// @Success 200 {object} CheckAvailabilityResponse
// @Failure 400 {object} map[string]string
// @Router /availability/check [post]
func (h *AvailabilityHandler) Check(c echo.Context) error {
	var req CheckAvailabilityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	result, err := h.service.Check(c.Request().Context(), application.CheckAvailabilityInput{
		SessionID:   c.Request().Header.Get("X-User-ID"),
		FlightID:    req.FlightID,
		Cabin:       seat.Cabin(req.Cabin),
		SeatNumbers: req.SeatNumbers,
	})
	if err != nil {
		return err
	}
	numbers := make([]string, len(result.Available))
	for i, se := range result.Available {
		numbers[i] = se.SeatNumber
	}
	return c.JSON(http.StatusOK, CheckAvailabilityResponse{
		Available:   len(result.Conflicts) == 0,
		SeatNumbers: numbers,
		Conflicts:   result.Conflicts,
	})
}

// ListAvailableSeats godoc
// @Summary 空席一覧を取得
// @Description フライト・キャビンの現時点で予約可能な座席を返します
// @Tags availability
// @Produce json
// @Param id path string true "フライトID"
// @Param cabin query string true "キャビンクラス" Enums(economy, business, first)
// @Success 200 {array} SeatResponse
// @Failure 400 {object} map[string]string
// @Router /flights/{id}/seats/available [get]
func (h *AvailabilityHandler) ListAvailableSeats(c echo.Context) error {
	seats, err := h.service.GetAvailableSeats(c.Request().Context(), c.Param("id"), seat.Cabin(c.QueryParam("cabin")))
	if err != nil {
		return err
	}
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = SeatResponse{
			ID: s.ID, SeatNumber: s.SeatNumber, Cabin: string(s.Cabin),
			Row: s.Row, Column: s.Column,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// CountAvailable godoc
// @Summary 空席数を取得
// @Description フライト・キャビンの空席数を返します（キャッシュされた概算値）
// @Tags availability
// @Produce json
// @Param id path string true "フライトID"
// @Param cabin query string true "キャビンクラス" Enums(economy, business, first)
// @Success 200 {object} AvailabilityCountResponse
// @Failure 400 {object} map[string]string
// @Router /flights/{id}/availability [get]
func (h *AvailabilityHandler) CountAvailable(c echo.Context) error {
	flightID := c.Param("id")
	cabin := seat.Cabin(c.QueryParam("cabin"))
	count, err := h.service.CountAvailable(c.Request().Context(), flightID, cabin)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityCountResponse{
		FlightID:  flightID,
		Cabin:     string(cabin),
		Available: count,
	})
}
