package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/booking"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/domain/seat"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
)

// 稼働率に応じた割増率。稼働率はキャンセル済みでない予約の
// 占有座席数をキャビン定員で割った値
const (
	occupancyTierHigh   = 0.9
	occupancyTierMid    = 0.7
	occupancyTierLow    = 0.5
	surchargeTierHigh   = 1.5
	surchargeTierMid    = 1.3
	surchargeTierLow    = 1.1
)

// PricingService は予約総額の見積もりを行う
// 読み取り専用の純関数で、副作用を持たない。稼働率の取得に失敗した
// 場合は割増なしの基本計算にフォールバックし、予約をブロックしない
type PricingService struct {
	flightRepo  flight.Repository
	seatRepo    seat.Repository
	bookingRepo booking.Repository
	cfg         config.PricingConfig
}

func NewPricingService(fr flight.Repository, sr seat.Repository, br booking.Repository, cfg config.PricingConfig) *PricingService {
	return &PricingService{flightRepo: fr, seatRepo: sr, bookingRepo: br, cfg: cfg}
}

// Quote は基本運賃 × キャビン倍率 × 座席数（＋稼働率割増）で総額を計算する
func (s *PricingService) Quote(ctx context.Context, flightID string, cabin seat.Cabin, seatCount int) (int, error) {
	if seatCount <= 0 {
		return 0, ErrNoSeatsRequested
	}
	if !cabin.IsValid() {
		return 0, seat.ErrInvalidCabin
	}

	f, err := s.flightRepo.GetByID(ctx, flightID)
	if err != nil {
		return 0, fmt.Errorf("フライト取得に失敗: %w", err)
	}

	perSeat := float64(f.BasePrice) * s.multiplier(cabin)

	if s.cfg.OccupancySurcharge {
		perSeat *= s.occupancySurcharge(ctx, flightID, cabin)
	}

	return int(perSeat) * seatCount, nil
}

func (s *PricingService) multiplier(cabin seat.Cabin) float64 {
	switch cabin {
	case seat.CabinBusiness:
		return s.cfg.BusinessMultiplier
	case seat.CabinFirst:
		return s.cfg.FirstMultiplier
	default:
		return s.cfg.EconomyMultiplier
	}
}

// occupancySurcharge は稼働率に応じた割増率を返す
// 取得に失敗した場合は警告を出して割増なし（1.0）とする
func (s *PricingService) occupancySurcharge(ctx context.Context, flightID string, cabin seat.Cabin) float64 {
	capacity, err := s.seatRepo.CountByFlightAndCabin(ctx, flightID, cabin)
	if err != nil || capacity == 0 {
		logger.Warn("キャビン定員の取得に失敗、稼働率割増をスキップ",
			zap.String("flight_id", flightID),
			zap.String("cabin", string(cabin)),
			zap.Error(err),
		)
		return 1.0
	}

	occupied, err := s.bookingRepo.CountActiveSeatsByFlightAndCabin(ctx, flightID, cabin)
	if err != nil {
		logger.Warn("占有座席数の取得に失敗、稼働率割増をスキップ",
			zap.String("flight_id", flightID),
			zap.String("cabin", string(cabin)),
			zap.Error(err),
		)
		return 1.0
	}

	ratio := float64(occupied) / float64(capacity)
	switch {
	case ratio > occupancyTierHigh:
		return surchargeTierHigh
	case ratio > occupancyTierMid:
		return surchargeTierMid
	case ratio > occupancyTierLow:
		return surchargeTierLow
	default:
		return 1.0
	}
}
