package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"skipped/internal/adapter/api"
	"skipped/internal/adapter/api/handler"
	apimiddleware "skipped/internal/adapter/api/middleware"
	"skipped/internal/adapter/api/router"
	"skipped/internal/domain/service"
	"skipped/internal/infrastructure/events"
	"skipped/internal/infrastructure/websocket"
	"skipped/internal/usecase"
	"skipped/pkg/config"
	"skipped/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := setupInfrastructure(ctx, cfg)
	if err != nil {
		logger.L().Fatal("Failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.close()

	wsManager := websocket.NewManager()
	notifier := service.MultiNotifier{wsManager}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := events.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		infra.closers = append(infra.closers, kafkaNotifier.Close)
		notifier = append(notifier, kafkaNotifier)
		logger.Info("Publishing notifications to Kafka topic %s", cfg.KafkaTopic)
	}

	gateway := service.NewStripePaymentService(cfg.StripeSecretKey, cfg.StripeAPIBase)
	repos := infra.repos

	listingUseCase := usecase.NewListingUseCase(repos.listings, repos.files, infra.uploader)
	offerUseCase := usecase.NewOfferUseCase(repos.offers, repos.listings, notifier)
	checkoutUseCase := usecase.NewCheckoutUseCase(repos.listings, repos.offers, gateway, cfg.Currency)
	paymentUseCase := usecase.NewPaymentUseCase(repos.transactions, repos.listings, offerUseCase, gateway, notifier, cfg.StripeWebhookSecret, cfg.Currency)
	orderUseCase := usecase.NewOrderUseCase(repos.transactions, notifier, cfg.AutoReleaseAfter)
	disputeUseCase := usecase.NewDisputeUseCase(repos.disputes, repos.transactions, repos.files, orderUseCase, gateway, infra.uploader, notifier)

	handler.Setup(listingUseCase, offerUseCase, checkoutUseCase, paymentUseCase, orderUseCase, disputeUseCase)
	handler.SetupHealthHandler(infra.healthChecks)
	handler.SetupWebSocketHandler(wsManager, cfg.AllowedOrigins)
	if infra.jwt != nil {
		handler.SetupDevTokenHandler(infra.jwt)
	}

	e := newServer(cfg)
	authMiddleware := apimiddleware.NewAuthMiddleware(infra.verifier)

	router.Setup(e, authMiddleware, infra.limiters)
	router.SetupWebSocketRouter(e, authMiddleware)
	router.SetupDevRouter(e, cfg.Environment)

	orderUseCase.StartAutoReleaseJob(ctx, cfg.AutoReleaseInterval)

	go func() {
		logger.Info("Starting server on port %s (storage=%s auth=%s)", cfg.ServerPort, cfg.StorageDriver, cfg.AuthProvider)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}

func newServer(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.L().Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.L().Info("request", fields...)
			return nil
		},
	}))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit(strconv.FormatInt(cfg.MaxUploadBytes, 10) + "B"))

	return e
}
