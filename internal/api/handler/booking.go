package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

type BookingHandler struct {
	service ReservationServiceInterface
}

func NewBookingHandler(s ReservationServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type PassengerRequest struct {
	FirstName      string `json:"first_name" validate:"required" example:"Taro"`
	LastName       string `json:"last_name" validate:"required" example:"Yamada"`
	PassportNumber string `json:"passport_number" validate:"required" example:"TR1234567"`
}

type CreateBookingRequest struct {
	FlightID    string             `json:"flight_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Cabin       string             `json:"cabin" validate:"required,oneof=economy business first" example:"economy"`
	SeatNumbers []string           `json:"seat_numbers" validate:"required,min=1" example:"12A,12B"`
	Passengers  []PassengerRequest `json:"passengers" validate:"required,min=1,dive"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" example:"customer request"`
}

type BookingResponse struct {
	ID                 string              `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Reference          string              `json:"reference" example:"A3F2B1"`
	UserID             string              `json:"user_id" example:"user-123"`
	FlightID           string              `json:"flight_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Cabin              string              `json:"cabin" example:"economy"`
	SeatIDs            []string            `json:"seat_ids"`
	Passengers         []booking.Passenger `json:"passengers"`
	TotalAmount        int                 `json:"total_amount" example:"45000"`
	Status             string              `json:"status" example:"pending"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, Reference: b.Reference, UserID: b.UserID,
		FlightID: b.FlightID, Cabin: string(b.Cabin),
		SeatIDs: b.SeatIDs, Passengers: b.Passengers,
		TotalAmount: b.TotalAmount, Status: string(b.Status),
		CancellationReason: b.CancellationReason,
		ConfirmedAt:        b.ConfirmedAt, CancelledAt: b.CancelledAt,
		CreatedAt: b.CreatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 指定座席を排他的に確保してPending予約を作成します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string "座席が予約済みまたは保留中"
// @Failure 503 {object} map[string]string "競合が解消せずリトライ上限に到達"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	passengers := make([]booking.Passenger, len(req.Passengers))
	for i, p := range req.Passengers {
		passengers[i] = booking.Passenger{
			FirstName:      p.FirstName,
			LastName:       p.LastName,
			PassportNumber: p.PassportNumber,
		}
	}

	b, err := h.service.Reserve(c.Request().Context(), application.ReserveInput{
		UserID:      userID,
		FlightID:    req.FlightID,
		Cabin:       seat.Cabin(req.Cabin),
		SeatNumbers: req.SeatNumbers,
		Passengers:  passengers,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetByReference godoc
// @Summary 参照コードで予約を取得
// @Description 予約参照コード（6桁16進）から予約を取得します
// @Tags bookings
// @Produce json
// @Param reference path string true "予約参照コード"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/reference/{reference} [get]
func (h *BookingHandler) GetByReference(c echo.Context) error {
	b, err := h.service.GetBookingByReference(c.Request().Context(), c.Param("reference"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetUserBookings godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.GetUserBookings(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// StartPayment godoc
// @Summary 決済開始を記録
// @Description Pending予約を決済待ち（AwaitingPayment）に遷移します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "遷移できない状態"
// @Router /bookings/{id}/payment [post]
func (h *BookingHandler) StartPayment(c echo.Context) error {
	b, err := h.service.PromoteToAwaitingPayment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Confirm godoc
// @Summary 予約を確定
// @Description 決済成功を受けて予約を確定し、シートロックを解放します
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "遷移できない状態"
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c echo.Context) error {
	b, err := h.service.PromoteToConfirmed(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、座席を解放します
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Param request body CancelBookingRequest false "キャンセル理由"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} map[string]string "本人以外のキャンセル"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "キャンセル済みまたは確定済み"
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	var req CancelBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	reason := req.Reason
	if reason == "" {
		reason = "customer request"
	}
	b, err := h.service.CancelBooking(c.Request().Context(), application.CancelBookingInput{
		BookingID: c.Param("id"),
		ActorID:   userID,
		Reason:    reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
