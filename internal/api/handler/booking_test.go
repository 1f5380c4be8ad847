package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
)

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Reserve(ctx context.Context, input application.ReserveInput) (*booking.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockReservationService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockReservationService) GetBookingByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockReservationService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockReservationService) PromoteToAwaitingPayment(ctx context.Context, bookingID string) (*booking.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockReservationService) PromoteToConfirmed(ctx context.Context, bookingID string) (*booking.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockReservationService) CancelBooking(ctx context.Context, input application.CancelBookingInput) (*booking.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func testBooking(status booking.Status) *booking.Booking {
	now := time.Now()
	return &booking.Booking{
		ID:          "booking-123",
		Reference:   "A3F2B1",
		UserID:      "user-123",
		FlightID:    "flight-123",
		Cabin:       seat.CabinEconomy,
		SeatIDs:     []string{"seat-1", "seat-2"},
		Passengers:  []booking.Passenger{{FirstName: "Taro", LastName: "Yamada"}, {FirstName: "Hanako", LastName: "Yamada"}},
		TotalAmount: 100000,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestBookingHandler_Create(t *testing.T) {
	e := NewTestEcho()

	reqBody := `{
		"flight_id": "flight-123",
		"cabin": "economy",
		"seat_numbers": ["12A", "12B"],
		"passengers": [
			{"first_name": "Taro", "last_name": "Yamada", "passport_number": "TR1234567"},
			{"first_name": "Hanako", "last_name": "Yamada", "passport_number": "TR7654321"}
		]
	}`

	t.Run("正常に予約を作成できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("Reserve", mock.Anything, mock.MatchedBy(func(input application.ReserveInput) bool {
			return input.UserID == "user-123" &&
				input.FlightID == "flight-123" &&
				input.Cabin == seat.CabinEconomy &&
				len(input.SeatNumbers) == 2 &&
				len(input.Passengers) == 2
		})).Return(testBooking(booking.StatusPending), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp BookingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "booking-123", resp.ID)
		assert.Equal(t, "A3F2B1", resp.Reference)
		assert.Equal(t, "pending", resp.Status)

		mockService.AssertExpectations(t)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		// X-User-ID ヘッダーなし
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
		mockService.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
	})

	t.Run("不正なリクエストでエラー", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader("invalid"))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})

	t.Run("座席数不足のリクエストでバリデーションエラー", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewBookingHandler(mockService)

		body := `{"flight_id": "flight-123", "cabin": "economy", "seat_numbers": [], "passengers": []}`
		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, he.Code)
		mockService.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything)
	})

	t.Run("座席競合エラーはそのまま返す", func(t *testing.T) {
		mockService := new(MockReservationService)
		conflictErr := &application.SeatConflictError{
			Conflicts: []application.SeatConflict{{SeatNumber: "12A", Reason: application.ConflictAlreadyBooked}},
		}
		mockService.On("Reserve", mock.Anything, mock.Anything).Return(nil, conflictErr)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.Create(c)

		require.Error(t, err)
		var sce *application.SeatConflictError
		require.True(t, errors.As(err, &sce))
		assert.Equal(t, "12A", sce.Conflicts[0].SeatNumber)
	})
}

func TestBookingHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に予約を取得できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetBooking", mock.Anything, "booking-123").Return(testBooking(booking.StatusConfirmed), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/booking-123", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.GetByID(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"confirmed"`)

		mockService.AssertExpectations(t)
	})

	t.Run("予約が見つからない場合はエラーを伝播する", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetBooking", mock.Anything, "nonexistent").Return(nil, booking.ErrBookingNotFound)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/nonexistent", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("nonexistent")

		err := handler.GetByID(c)

		require.Error(t, err)
		assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	})
}

func TestBookingHandler_GetByReference(t *testing.T) {
	e := NewTestEcho()

	t.Run("参照コードで予約を取得できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetBookingByReference", mock.Anything, "A3F2B1").Return(testBooking(booking.StatusPending), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings/reference/A3F2B1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("reference")
		c.SetParamValues("A3F2B1")

		err := handler.GetByReference(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"reference":"A3F2B1"`)

		mockService.AssertExpectations(t)
	})
}

func TestBookingHandler_GetUserBookings(t *testing.T) {
	e := NewTestEcho()

	t.Run("ユーザーの予約一覧を取得できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("GetUserBookings", mock.Anything, "user-123", 10, 5).
			Return([]*booking.Booking{testBooking(booking.StatusPending)}, nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings?limit=10&offset=5", nil)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.GetUserBookings(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []BookingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 1)

		mockService.AssertExpectations(t)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/bookings", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := handler.GetUserBookings(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestBookingHandler_StartPayment(t *testing.T) {
	e := NewTestEcho()

	t.Run("決済開始を記録できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("PromoteToAwaitingPayment", mock.Anything, "booking-123").
			Return(testBooking(booking.StatusAwaitingPayment), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/payment", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.StartPayment(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"awaiting_payment"`)

		mockService.AssertExpectations(t)
	})
}

func TestBookingHandler_Confirm(t *testing.T) {
	e := NewTestEcho()

	t.Run("予約を確定できる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("PromoteToConfirmed", mock.Anything, "booking-123").
			Return(testBooking(booking.StatusConfirmed), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/confirm", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.Confirm(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("許可されない遷移はエラーを伝播する", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("PromoteToConfirmed", mock.Anything, "booking-123").
			Return(nil, booking.ErrInvalidStateTransition)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/confirm", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.Confirm(c)

		assert.ErrorIs(t, err, booking.ErrInvalidStateTransition)
	})
}

func TestBookingHandler_Cancel(t *testing.T) {
	e := NewTestEcho()

	t.Run("理由付きでキャンセルできる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CancelBooking", mock.Anything, application.CancelBookingInput{
			BookingID: "booking-123",
			ActorID:   "user-123",
			Reason:    "予定変更",
		}).Return(testBooking(booking.StatusCancelled), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/cancel", strings.NewReader(`{"reason": "予定変更"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.Cancel(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		mockService.AssertExpectations(t)
	})

	t.Run("理由省略時はデフォルト理由になる", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CancelBooking", mock.Anything, application.CancelBookingInput{
			BookingID: "booking-123",
			ActorID:   "user-123",
			Reason:    "customer request",
		}).Return(testBooking(booking.StatusCancelled), nil)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/cancel", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "user-123")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.Cancel(c)

		require.NoError(t, err)
		mockService.AssertExpectations(t)
	})

	t.Run("ユーザーIDがない場合401", func(t *testing.T) {
		mockService := new(MockReservationService)
		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/cancel", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.Cancel(c)

		require.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("他人の予約のキャンセルはエラーを伝播する", func(t *testing.T) {
		mockService := new(MockReservationService)
		mockService.On("CancelBooking", mock.Anything, mock.Anything).Return(nil, booking.ErrForbidden)

		handler := NewBookingHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/bookings/booking-123/cancel", strings.NewReader(`{}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("X-User-ID", "other-user")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("booking-123")

		err := handler.Cancel(c)

		assert.ErrorIs(t, err, booking.ErrForbidden)
	})
}
