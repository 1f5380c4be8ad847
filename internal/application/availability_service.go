package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seatlock"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

const availableCountCacheTTL = 30 * time.Second

// AvailabilityCache は空席数キャッシュのインターフェース
type AvailabilityCache interface {
	GetAvailableCount(ctx context.Context, flightID string, cabin seat.Cabin) (int, error)
	SetAvailableCount(ctx context.Context, flightID string, cabin seat.Cabin, count int, ttl time.Duration) error
	Invalidate(ctx context.Context, flightID string, cabin seat.Cabin) error
}

// AvailabilityService は空席判定の読み取りパスを提供する
// この判定は助言値であり、チェックと確保の間のレース解消は
// 予約トランザクション内の再検証（ReservationService）が担う
type AvailabilityService struct {
	seatRepo    seat.Repository
	bookingRepo booking.Repository
	lockRepo    seatlock.Repository
	cache       AvailabilityCache
}

func NewAvailabilityService(sr seat.Repository, br booking.Repository, lr seatlock.Repository, cache AvailabilityCache) *AvailabilityService {
	return &AvailabilityService{seatRepo: sr, bookingRepo: br, lockRepo: lr, cache: cache}
}

type CheckAvailabilityInput struct {
	SessionID   string
	FlightID    string
	Cabin       seat.Cabin
	SeatNumbers []string
}

type AvailabilityResult struct {
	Available []*seat.Seat
	Conflicts []SeatConflict
}

// Check は要求された座席の空席状況を判定する
// (1) フライト・キャビンに存在しない座席 (2) キャンセル済みでない予約が
// 占有する座席 (3) 他セッションのActiveかつ未失効ロックが付いた座席 を
// 競合として報告し、残りを予約可能として返す
func (s *AvailabilityService) Check(ctx context.Context, input CheckAvailabilityInput) (*AvailabilityResult, error) {
	if !input.Cabin.IsValid() {
		return nil, seat.ErrInvalidCabin
	}
	if len(input.SeatNumbers) == 0 {
		return nil, ErrNoSeatsRequested
	}

	seats, err := s.seatRepo.GetByFlightAndNumbers(ctx, input.FlightID, input.Cabin, input.SeatNumbers)
	if err != nil {
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}

	conflicts, seatByID := classifyMissingSeats(input.SeatNumbers, seats)

	seatIDs := make([]string, 0, len(seats))
	for _, se := range seats {
		seatIDs = append(seatIDs, se.ID)
	}

	unavailable := make(map[string]struct{})

	if len(seatIDs) > 0 {
		// 他セッションのActiveロックを先に判定する。ロック保持中の予約が
		// 付いた座席は「一時的な保留」、ロックを持たない確定済み予約の
		// 座席だけが「予約済み」になる
		locks, err := s.lockRepo.GetActiveBySeatIDs(ctx, seatIDs)
		if err != nil {
			return nil, fmt.Errorf("シートロック取得に失敗: %w", err)
		}
		for _, l := range locks {
			if !l.Blocks(input.SessionID) {
				continue
			}
			se, ok := seatByID[l.SeatID]
			if !ok {
				continue
			}
			if _, dup := unavailable[l.SeatID]; dup {
				continue
			}
			unavailable[l.SeatID] = struct{}{}
			conflicts = append(conflicts, SeatConflict{SeatNumber: se.SeatNumber, Reason: ConflictTemporarilyHeld})
		}

		active, err := s.bookingRepo.GetActiveBySeatIDs(ctx, seatIDs)
		if err != nil {
			return nil, fmt.Errorf("予約状況取得に失敗: %w", err)
		}
		for _, b := range active {
			for _, sid := range b.SeatIDs {
				se, ok := seatByID[sid]
				if !ok {
					continue
				}
				if _, dup := unavailable[sid]; dup {
					continue
				}
				unavailable[sid] = struct{}{}
				conflicts = append(conflicts, SeatConflict{SeatNumber: se.SeatNumber, Reason: ConflictAlreadyBooked})
			}
		}
	}

	available := make([]*seat.Seat, 0, len(seats))
	for _, se := range seats {
		if _, ok := unavailable[se.ID]; !ok {
			available = append(available, se)
		}
	}

	return &AvailabilityResult{Available: available, Conflicts: conflicts}, nil
}

// GetAvailableSeats はキャビンの予約可能な座席一覧を返す（シートマップ表示用）
func (s *AvailabilityService) GetAvailableSeats(ctx context.Context, flightID string, cabin seat.Cabin) ([]*seat.Seat, error) {
	if !cabin.IsValid() {
		return nil, seat.ErrInvalidCabin
	}
	seats, err := s.seatRepo.GetByFlightAndCabin(ctx, flightID, cabin)
	if err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}

	seatIDs := make([]string, 0, len(seats))
	for _, se := range seats {
		if !se.IsBlocked {
			seatIDs = append(seatIDs, se.ID)
		}
	}
	if len(seatIDs) == 0 {
		return []*seat.Seat{}, nil
	}

	unavailable := make(map[string]struct{})
	active, err := s.bookingRepo.GetActiveBySeatIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("予約状況取得に失敗: %w", err)
	}
	for _, b := range active {
		for _, sid := range b.SeatIDs {
			unavailable[sid] = struct{}{}
		}
	}
	locks, err := s.lockRepo.GetActiveBySeatIDs(ctx, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("シートロック取得に失敗: %w", err)
	}
	for _, l := range locks {
		if l.Blocks("") {
			unavailable[l.SeatID] = struct{}{}
		}
	}

	available := make([]*seat.Seat, 0, len(seats))
	for _, se := range seats {
		if se.IsBlocked {
			continue
		}
		if _, ok := unavailable[se.ID]; !ok {
			available = append(available, se)
		}
	}
	return available, nil
}

// CountAvailable はキャビンの空席数を返す（キャッシュ付き）
func (s *AvailabilityService) CountAvailable(ctx context.Context, flightID string, cabin seat.Cabin) (int, error) {
	if s.cache != nil {
		if count, err := s.cache.GetAvailableCount(ctx, flightID, cabin); err == nil {
			return count, nil
		}
	}

	seats, err := s.GetAvailableSeats(ctx, flightID, cabin)
	if err != nil {
		return 0, err
	}
	count := len(seats)

	if s.cache != nil {
		if err := s.cache.SetAvailableCount(ctx, flightID, cabin, count, availableCountCacheTTL); err != nil {
			logger.Warn("空席数キャッシュの保存に失敗",
				zap.String("flight_id", flightID),
				zap.String("cabin", string(cabin)),
				zap.Error(err),
			)
		}
	}
	return count, nil
}

// classifyMissingSeats は要求座席のうちキャビンに存在しないものを競合として返す
func classifyMissingSeats(requested []string, found []*seat.Seat) ([]SeatConflict, map[string]*seat.Seat) {
	byNumber := make(map[string]*seat.Seat, len(found))
	byID := make(map[string]*seat.Seat, len(found))
	for _, se := range found {
		byNumber[se.SeatNumber] = se
		byID[se.ID] = se
	}

	var conflicts []SeatConflict
	for _, number := range requested {
		if _, ok := byNumber[number]; !ok {
			conflicts = append(conflicts, SeatConflict{SeatNumber: number, Reason: ConflictNotInCabin})
		}
	}
	return conflicts, byID
}
