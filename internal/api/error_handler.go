package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error     string                     `json:"error"`
	Code      int                        `json:"code,omitempty"`
	Conflicts []application.SeatConflict `json:"conflicts,omitempty"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
// サービス層のエラー分類をHTTPステータスに変換する
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, resp := classifyError(err)

	// 5xx エラーの場合のみログを出力
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func classifyError(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		return he.Code, ErrorResponse{Error: message, Code: he.Code}
	}

	var conflictErr *application.SeatConflictError
	if errors.As(err, &conflictErr) {
		return http.StatusConflict, ErrorResponse{
			Error:     conflictErr.Error(),
			Code:      http.StatusConflict,
			Conflicts: conflictErr.Conflicts,
		}
	}

	var code int
	switch {
	case errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, flight.ErrFlightNotFound):
		code = http.StatusNotFound
	case errors.Is(err, booking.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, application.ErrConcurrencyExhausted):
		code = http.StatusServiceUnavailable
	case errors.Is(err, booking.ErrBookingAlreadyCancelled),
		errors.Is(err, booking.ErrBookingAlreadyConfirmed),
		errors.Is(err, booking.ErrInvalidStateTransition):
		code = http.StatusConflict
	case errors.Is(err, flight.ErrFlightNotBookable):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, seat.ErrInvalidCabin),
		errors.Is(err, application.ErrNoSeatsRequested),
		errors.Is(err, application.ErrSeatCountMismatch),
		errors.Is(err, application.ErrDuplicateSeatNumbers),
		errors.Is(err, booking.ErrUserIDRequired),
		errors.Is(err, booking.ErrFlightIDRequired):
		code = http.StatusBadRequest
	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error: "内部サーバーエラー",
			Code:  http.StatusInternalServerError,
		}
	}
	return code, ErrorResponse{Error: err.Error(), Code: code}
}
