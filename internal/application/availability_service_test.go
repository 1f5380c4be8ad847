package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seatlock"
)

type availabilityDeps struct {
	seatRepo    *MockSeatRepository
	bookingRepo *MockBookingRepository
	lockRepo    *MockSeatLockRepository
	cache       *MockAvailabilityCache
	service     *AvailabilityService
}

func newAvailabilityDeps(withCache bool) *availabilityDeps {
	seatRepo := new(MockSeatRepository)
	bookingRepo := new(MockBookingRepository)
	lockRepo := new(MockSeatLockRepository)

	var cache *MockAvailabilityCache
	var cacheIface AvailabilityCache
	if withCache {
		cache = new(MockAvailabilityCache)
		cacheIface = cache
	}
	service := NewAvailabilityService(seatRepo, bookingRepo, lockRepo, cacheIface)

	return &availabilityDeps{
		seatRepo: seatRepo, bookingRepo: bookingRepo,
		lockRepo: lockRepo, cache: cache, service: service,
	}
}

func TestAvailabilityService_Check(t *testing.T) {
	ctx := context.Background()
	input := CheckAvailabilityInput{
		SessionID:   "user-1",
		FlightID:    "flight-1",
		Cabin:       seat.CabinEconomy,
		SeatNumbers: []string{"12A", "12B", "12C"},
	}

	t.Run("全席予約可能", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
			{ID: "seat-3", SeatNumber: "12C", Cabin: seat.CabinEconomy},
		}
		deps.seatRepo.On("GetByFlightAndNumbers", ctx, "flight-1", seat.CabinEconomy, input.SeatNumbers).Return(seats, nil)
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*booking.Booking{}, nil)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*seatlock.SeatLock{}, nil)

		result, err := deps.service.Check(ctx, input)

		require.NoError(t, err)
		assert.Len(t, result.Available, 3)
		assert.Empty(t, result.Conflicts)
	})

	t.Run("3種類の競合が同時に報告される", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		// 12C はキャビンに存在しない
		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
		}
		deps.seatRepo.On("GetByFlightAndNumbers", ctx, "flight-1", seat.CabinEconomy, input.SeatNumbers).Return(seats, nil)
		// 12A は予約済み
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).
			Return([]*booking.Booking{{ID: "b-1", Status: booking.StatusConfirmed, SeatIDs: []string{"seat-1"}}}, nil)
		// 12B は他セッションが保留中
		otherLock := seatlock.NewSeatLock("flight-1", "seat-2", "b-2", "user-other", 15*time.Minute)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*seatlock.SeatLock{otherLock}, nil)

		result, err := deps.service.Check(ctx, input)

		require.NoError(t, err)
		assert.Empty(t, result.Available)
		require.Len(t, result.Conflicts, 3)

		reasons := make(map[string]ConflictReason)
		for _, c := range result.Conflicts {
			reasons[c.SeatNumber] = c.Reason
		}
		assert.Equal(t, ConflictNotInCabin, reasons["12C"])
		assert.Equal(t, ConflictAlreadyBooked, reasons["12A"])
		assert.Equal(t, ConflictTemporarilyHeld, reasons["12B"])
	})

	t.Run("ロック保持中のPending予約は一時的な保留として報告される", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
			{ID: "seat-3", SeatNumber: "12C", Cabin: seat.CabinEconomy},
		}
		deps.seatRepo.On("GetByFlightAndNumbers", ctx, "flight-1", seat.CabinEconomy, input.SeatNumbers).Return(seats, nil)
		// 12A は別ユーザーの予約直後：PendingのままActiveロックを保持している
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).
			Return([]*booking.Booking{{ID: "b-1", Status: booking.StatusPending, SeatIDs: []string{"seat-1"}}}, nil)
		otherLock := seatlock.NewSeatLock("flight-1", "seat-1", "b-1", "user-other", 15*time.Minute)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*seatlock.SeatLock{otherLock}, nil)

		result, err := deps.service.Check(ctx, input)

		require.NoError(t, err)
		require.Len(t, result.Conflicts, 1)
		assert.Equal(t, "12A", result.Conflicts[0].SeatNumber)
		assert.Equal(t, ConflictTemporarilyHeld, result.Conflicts[0].Reason)
	})

	t.Run("自セッションのロックは予約可能扱い", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
			{ID: "seat-3", SeatNumber: "12C", Cabin: seat.CabinEconomy},
		}
		deps.seatRepo.On("GetByFlightAndNumbers", ctx, "flight-1", seat.CabinEconomy, input.SeatNumbers).Return(seats, nil)
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*booking.Booking{}, nil)
		ownLock := seatlock.NewSeatLock("flight-1", "seat-1", "b-1", "user-1", 15*time.Minute)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*seatlock.SeatLock{ownLock}, nil)

		result, err := deps.service.Check(ctx, input)

		require.NoError(t, err)
		assert.Len(t, result.Available, 3)
		assert.Empty(t, result.Conflicts)
	})

	t.Run("期限切れロックは予約可能扱い", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
			{ID: "seat-3", SeatNumber: "12C", Cabin: seat.CabinEconomy},
		}
		deps.seatRepo.On("GetByFlightAndNumbers", ctx, "flight-1", seat.CabinEconomy, input.SeatNumbers).Return(seats, nil)
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*booking.Booking{}, nil)
		expired := seatlock.NewSeatLock("flight-1", "seat-1", "b-1", "user-other", 15*time.Minute)
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*seatlock.SeatLock{expired}, nil)

		result, err := deps.service.Check(ctx, input)

		require.NoError(t, err)
		assert.Len(t, result.Available, 3)
	})

	t.Run("不正なキャビンクラスは拒否", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		bad := input
		bad.Cabin = seat.Cabin("deck")
		_, err := deps.service.Check(ctx, bad)
		assert.ErrorIs(t, err, seat.ErrInvalidCabin)
	})
}

func TestAvailabilityService_GetAvailableSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("予約済み・保留中・販売停止席を除外する", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
			{ID: "seat-3", SeatNumber: "12C", Cabin: seat.CabinEconomy},
			{ID: "seat-4", SeatNumber: "12D", Cabin: seat.CabinEconomy, IsBlocked: true},
		}
		deps.seatRepo.On("GetByFlightAndCabin", ctx, "flight-1", seat.CabinEconomy).Return(seats, nil)
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, []string{"seat-1", "seat-2", "seat-3"}).
			Return([]*booking.Booking{{ID: "b-1", SeatIDs: []string{"seat-1"}}}, nil)
		lock := seatlock.NewSeatLock("flight-1", "seat-2", "b-2", "user-x", 15*time.Minute)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, []string{"seat-1", "seat-2", "seat-3"}).
			Return([]*seatlock.SeatLock{lock}, nil)

		available, err := deps.service.GetAvailableSeats(ctx, "flight-1", seat.CabinEconomy)

		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, "12C", available[0].SeatNumber)
	})
}

func TestAvailabilityService_CountAvailable(t *testing.T) {
	ctx := context.Background()

	t.Run("キャッシュヒット時はDBに触れない", func(t *testing.T) {
		deps := newAvailabilityDeps(true)
		deps.cache.On("GetAvailableCount", ctx, "flight-1", seat.CabinEconomy).Return(42, nil)

		count, err := deps.service.CountAvailable(ctx, "flight-1", seat.CabinEconomy)

		require.NoError(t, err)
		assert.Equal(t, 42, count)
		deps.seatRepo.AssertNotCalled(t, "GetByFlightAndCabin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("キャッシュミス時は計算してキャッシュに保存する", func(t *testing.T) {
		deps := newAvailabilityDeps(true)
		deps.cache.On("GetAvailableCount", ctx, "flight-1", seat.CabinEconomy).Return(0, errors.New("cache miss"))

		seats := []*seat.Seat{
			{ID: "seat-1", SeatNumber: "12A", Cabin: seat.CabinEconomy},
			{ID: "seat-2", SeatNumber: "12B", Cabin: seat.CabinEconomy},
		}
		deps.seatRepo.On("GetByFlightAndCabin", ctx, "flight-1", seat.CabinEconomy).Return(seats, nil)
		deps.bookingRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*booking.Booking{}, nil)
		deps.lockRepo.On("GetActiveBySeatIDs", ctx, mock.Anything).Return([]*seatlock.SeatLock{}, nil)
		deps.cache.On("SetAvailableCount", ctx, "flight-1", seat.CabinEconomy, 2, availableCountCacheTTL).Return(nil)

		count, err := deps.service.CountAvailable(ctx, "flight-1", seat.CabinEconomy)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		deps.cache.AssertExpectations(t)
	})

	t.Run("キャッシュなしでも動作する", func(t *testing.T) {
		deps := newAvailabilityDeps(false)
		deps.seatRepo.On("GetByFlightAndCabin", ctx, "flight-1", seat.CabinEconomy).Return([]*seat.Seat{}, nil)

		count, err := deps.service.CountAvailable(ctx, "flight-1", seat.CabinEconomy)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
