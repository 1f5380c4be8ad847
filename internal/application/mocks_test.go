package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seatlock"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/transaction"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

func (m *MockTxManager) BeginSerializable(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockFlightRepository implements flight.Repository
type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, f *flight.Flight) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*flight.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Flight), args.Error(1)
}

// MockSeatRepository implements seat.Repository
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

func (m *MockSeatRepository) GetByFlightAndNumbers(ctx context.Context, flightID string, cabin seat.Cabin, seatNumbers []string) ([]*seat.Seat, error) {
	args := m.Called(ctx, flightID, cabin, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetForReservation(ctx context.Context, tx transaction.Tx, flightID string, cabin seat.Cabin, seatNumbers []string) ([]*seat.Seat, error) {
	args := m.Called(ctx, tx, flightID, cabin, seatNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) ([]*seat.Seat, error) {
	args := m.Called(ctx, flightID, cabin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) CountByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	args := m.Called(ctx, flightID, cabin)
	return args.Int(0), args.Error(1)
}

// MockBookingRepository implements booking.Repository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByIDTx(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetActiveBySeatIDs(ctx context.Context, seatIDs []string) ([]*booking.Booking, error) {
	args := m.Called(ctx, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetActiveBySeatIDsTx(ctx context.Context, tx transaction.Tx, seatIDs []string) ([]*booking.Booking, error) {
	args := m.Called(ctx, tx, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetExpiredPending(ctx context.Context, olderThan time.Duration) ([]*booking.Booking, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) CountActiveSeatsByFlightAndCabin(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	args := m.Called(ctx, flightID, cabin)
	return args.Int(0), args.Error(1)
}

// MockSeatLockRepository implements seatlock.Repository
type MockSeatLockRepository struct {
	mock.Mock
}

func (m *MockSeatLockRepository) CreateBulk(ctx context.Context, tx transaction.Tx, locks []*seatlock.SeatLock) error {
	args := m.Called(ctx, tx, locks)
	return args.Error(0)
}

func (m *MockSeatLockRepository) GetActiveBySeatIDs(ctx context.Context, seatIDs []string) ([]*seatlock.SeatLock, error) {
	args := m.Called(ctx, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seatlock.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepository) GetActiveBySeatIDsTx(ctx context.Context, tx transaction.Tx, seatIDs []string) ([]*seatlock.SeatLock, error) {
	args := m.Called(ctx, tx, seatIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seatlock.SeatLock), args.Error(1)
}

func (m *MockSeatLockRepository) ReleaseByBookingID(ctx context.Context, tx transaction.Tx, bookingID string) (int, error) {
	args := m.Called(ctx, tx, bookingID)
	return args.Int(0), args.Error(1)
}

// MockQuoter implements Quoter
type MockQuoter struct {
	mock.Mock
}

func (m *MockQuoter) Quote(ctx context.Context, flightID string, cabin seat.Cabin, seatCount int) (int, error) {
	args := m.Called(ctx, flightID, cabin, seatCount)
	return args.Int(0), args.Error(1)
}

// MockNotifier implements Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyBookingStatusChanged(ctx context.Context, b *booking.Booking, event string) error {
	args := m.Called(ctx, b, event)
	return args.Error(0)
}

// MockAvailabilityCache implements AvailabilityCache
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) GetAvailableCount(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	args := m.Called(ctx, flightID, cabin)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailabilityCache) SetAvailableCount(ctx context.Context, flightID string, cabin seat.Cabin, count int, ttl time.Duration) error {
	args := m.Called(ctx, flightID, cabin, count, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, flightID string, cabin seat.Cabin) error {
	args := m.Called(ctx, flightID, cabin)
	return args.Error(0)
}
