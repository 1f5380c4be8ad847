package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約試行の総数（status: success, seat_conflict, validation_error, retry_exhausted, error）
	ReservationsTotal *prometheus.CounterVec

	// シリアライゼーション競合によるリトライ回数
	SerializationRetriesTotal prometheus.Counter

	// スイーパーが処理した予約数（result: expired, skipped, error）
	SweeperBookingsTotal *prometheus.CounterVec

	// 予約トランザクションの所要時間
	ReservationTxDuration prometheus.Histogram

	// アクティブな予約数（status: pending, awaiting_payment, confirmed）
	ActiveBookings *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservations_total",
				Help: "Total number of seat reservation attempts",
			},
			[]string{"status"},
		),
		SerializationRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reservation_serialization_retries_total",
				Help: "Number of reservation transaction retries after serialization conflicts",
			},
		),
		SweeperBookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweeper_bookings_total",
				Help: "Bookings processed by the expiration sweeper",
			},
			[]string{"result"},
		),
		ReservationTxDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reservation_tx_duration_seconds",
				Help:    "Time spent inside the reservation transaction including retries",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		ActiveBookings: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "active_bookings",
				Help: "Current number of non-cancelled bookings",
			},
			[]string{"status"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.SerializationRetriesTotal,
		m.SweeperBookingsTotal,
		m.ReservationTxDuration,
		m.ActiveBookings,
	)

	return m
}
