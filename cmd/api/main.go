package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-seat-reservation/internal/api"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/api/handler"
	custommiddleware "github.com/sanosuguru/go-flight-seat-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/application"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/config"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/notification"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-flight-seat-reservation/internal/worker"
)

func main() {
	// .env があれば読み込む（ローカル開発用）
	_ = godotenv.Load()

	cfg := config.Load()

	logger.Set(logger.NewLogger(os.Getenv("APP_ENV")))
	defer logger.Sync()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := postgres.Ping(ctx, db); err != nil {
		cancel()
		logger.Fatal("データベース疎通確認に失敗", zap.Error(err))
	}
	cancel()

	// マイグレーション実行
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis接続（キャッシュとスイープロック。利用できなくても起動は継続）
	var (
		availCache *redis.AvailabilityCache
		sweepLock  *redis.SweepLock
	)
	redisClient := redis.NewClient(&cfg.Redis)
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redis.Ping(pingCtx, redisClient); err != nil {
		logger.Warn("Redisに接続できません。キャッシュとスイープロックなしで起動します", zap.Error(err))
	} else {
		availCache = redis.NewAvailabilityCache(redisClient)
		sweepLock = redis.NewSweepLock(redisClient, cfg.Sweeper.LockTTL)
	}
	pingCancel()

	// メトリクス
	m := metrics.New()

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	flightRepo := postgres.NewFlightRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	lockRepo := postgres.NewSeatLockRepository(db)

	// 通知
	notifier := notification.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue)

	// サービス
	pricingService := application.NewPricingService(flightRepo, seatRepo, bookingRepo, cfg.Pricing)

	reservationOpts := []application.ReservationOption{
		application.WithLockTTL(cfg.Booking.LockDuration),
		application.WithRetryPolicy(cfg.Booking.MaxRetries, cfg.Booking.RetryBaseDelay),
		application.WithTxTimeout(cfg.Booking.TxTimeout),
		application.WithNotifier(notifier),
		application.WithMetrics(m),
	}
	expirationOpts := []application.ExpirationOption{
		application.WithExpirationNotifier(notifier),
		application.WithExpirationMetrics(m),
	}
	if availCache != nil {
		reservationOpts = append(reservationOpts, application.WithAvailabilityCache(availCache))
		expirationOpts = append(expirationOpts, application.WithExpirationCache(availCache))
	}

	reservationService := application.NewReservationService(
		txManager, flightRepo, seatRepo, bookingRepo, lockRepo, pricingService,
		reservationOpts...,
	)
	expirationService := application.NewExpirationService(
		txManager, bookingRepo, lockRepo, cfg.Booking.PendingExpiry,
		expirationOpts...,
	)

	var cacheForAvailability application.AvailabilityCache
	if availCache != nil {
		cacheForAvailability = availCache
	}
	availabilityService := application.NewAvailabilityService(seatRepo, bookingRepo, lockRepo, cacheForAvailability)
	inventoryService := application.NewInventoryService(flightRepo, seatRepo)

	// 期限切れ予約スイーパー
	var lock worker.SweepLock
	if sweepLock != nil {
		lock = sweepLock
	}
	sweeper := worker.NewExpirationSweeper(expirationService, lock, cfg.Sweeper.Interval)
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	go sweeper.Start(sweeperCtx)

	// Echoサーバー
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	custommiddleware.SetupMiddleware(e)
	e.Use(custommiddleware.PrometheusMiddleware(m))

	// ハンドラー
	bookingHandler := handler.NewBookingHandler(reservationService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	flightHandler := handler.NewFlightHandler(inventoryService)
	adminHandler := handler.NewAdminHandler(expirationService)
	healthHandler := handler.NewHealthHandler()

	// ルーティング
	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	v1.POST("/flights", flightHandler.Create)
	v1.GET("/flights/:id", flightHandler.GetByID)
	v1.POST("/flights/:id/seats", flightHandler.CreateSeatMap)
	v1.GET("/flights/:id/seats/available", availabilityHandler.ListAvailableSeats)
	v1.GET("/flights/:id/availability", availabilityHandler.CountAvailable)

	v1.POST("/availability/check", availabilityHandler.Check)

	v1.POST("/bookings", bookingHandler.Create)
	v1.GET("/bookings", bookingHandler.GetUserBookings)
	v1.GET("/bookings/:id", bookingHandler.GetByID)
	v1.GET("/bookings/reference/:reference", bookingHandler.GetByReference)
	v1.POST("/bookings/:id/payment", bookingHandler.StartPayment)
	v1.POST("/bookings/:id/confirm", bookingHandler.Confirm)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)

	v1.POST("/admin/sweep", adminHandler.RunSweep)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommiddleware.MetricsBasicAuth())

	// サーバー起動
	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	logger.Info("サーバーを起動しました", zap.String("port", cfg.Server.Port))

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウンを開始します")

	// HTTPを先にドレインし、その後ワーカーを停止する
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}

	sweeperCancel()
	sweeper.Stop()

	logger.Info("サーバーが正常にシャットダウンしました")
}
