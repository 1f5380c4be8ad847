package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

type FlightHandler struct {
	service InventoryServiceInterface
}

func NewFlightHandler(s InventoryServiceInterface) *FlightHandler {
	return &FlightHandler{service: s}
}

type CreateFlightRequest struct {
	FlightNumber string    `json:"flight_number" validate:"required" example:"NH204"`
	Origin       string    `json:"origin" validate:"required" example:"HND"`
	Destination  string    `json:"destination" validate:"required" example:"SFO"`
	DepartureAt  time.Time `json:"departure_at" validate:"required"`
	ArrivalAt    time.Time `json:"arrival_at" validate:"required"`
	BasePrice    int       `json:"base_price" validate:"required,min=0" example:"85000"`
}

type FlightResponse struct {
	ID           string    `json:"id"`
	FlightNumber string    `json:"flight_number" example:"NH204"`
	Origin       string    `json:"origin" example:"HND"`
	Destination  string    `json:"destination" example:"SFO"`
	DepartureAt  time.Time `json:"departure_at"`
	ArrivalAt    time.Time `json:"arrival_at"`
	BasePrice    int       `json:"base_price" example:"85000"`
	Status       string    `json:"status" example:"scheduled"`
	CreatedAt    time.Time `json:"created_at"`
}

func toFlightResponse(f *flight.Flight) FlightResponse {
	return FlightResponse{
		ID: f.ID, FlightNumber: f.FlightNumber,
		Origin: f.Origin, Destination: f.Destination,
		DepartureAt: f.DepartureAt, ArrivalAt: f.ArrivalAt,
		BasePrice: f.BasePrice, Status: string(f.Status),
		CreatedAt: f.CreatedAt,
	}
}

type SeatSpecRequest struct {
	SeatNumber string `json:"seat_number" validate:"required" example:"12A"`
	Cabin      string `json:"cabin" validate:"required,oneof=economy business first" example:"economy"`
	Row        int    `json:"row" validate:"required,min=1" example:"12"`
	Column     string `json:"column" validate:"required" example:"A"`
}

type CreateSeatMapRequest struct {
	Seats []SeatSpecRequest `json:"seats" validate:"required,min=1,dive"`
}

type CreateSeatMapResponse struct {
	FlightID string `json:"flight_id"`
	Created  int    `json:"created" example:"180"`
}

// Create godoc
// @Summary フライトを登録
// @Description 予約対象のフライトを登録します
// @Tags flights
// @Accept json
// @Produce json
// @Param request body CreateFlightRequest true "フライト情報"
// @Success 201 {object} FlightResponse
// @Failure 400 {object} map[string]string
// @Router /flights [post]
func (h *FlightHandler) Create(c echo.Context) error {
	var req CreateFlightRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	f, err := h.service.CreateFlight(c.Request().Context(), application.CreateFlightInput{
		FlightNumber: req.FlightNumber,
		Origin:       req.Origin,
		Destination:  req.Destination,
		DepartureAt:  req.DepartureAt,
		ArrivalAt:    req.ArrivalAt,
		BasePrice:    req.BasePrice,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toFlightResponse(f))
}

// GetByID godoc
// @Summary フライトを取得
// @Description 指定IDのフライトを取得します
// @Tags flights
// @Produce json
// @Param id path string true "フライトID"
// @Success 200 {object} FlightResponse
// @Failure 404 {object} map[string]string
// @Router /flights/{id} [get]
func (h *FlightHandler) GetByID(c echo.Context) error {
	f, err := h.service.GetFlight(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFlightResponse(f))
}

// CreateSeatMap godoc
// @Summary シートマップを登録
// @Description フライトの座席を一括登録します
// @Tags flights
// @Accept json
// @Produce json
// @Param id path string true "フライトID"
// @Param request body CreateSeatMapRequest true "シートマップ"
// @Success 201 {object} CreateSeatMapResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /flights/{id}/seats [post]
func (h *FlightHandler) CreateSeatMap(c echo.Context) error {
	var req CreateSeatMapRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	flightID := c.Param("id")
	specs := make([]application.SeatSpec, len(req.Seats))
	for i, s := range req.Seats {
		specs[i] = application.SeatSpec{
			SeatNumber: s.SeatNumber,
			Cabin:      seat.Cabin(s.Cabin),
			Row:        s.Row,
			Column:     s.Column,
		}
	}
	created, err := h.service.CreateSeatMap(c.Request().Context(), application.CreateSeatMapInput{
		FlightID: flightID,
		Seats:    specs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CreateSeatMapResponse{
		FlightID: flightID,
		Created:  len(created),
	})
}
