package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gowa-pairing/config"
	"gowa-pairing/database"
	"gowa-pairing/internal/handler"
	"gowa-pairing/internal/helper"
	customMiddleware "gowa-pairing/internal/middleware"
	"gowa-pairing/internal/model"
	"gowa-pairing/internal/service"
	"gowa-pairing/internal/ws"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	// Load .env (abaikan error kalau file tidak ada, misal di production)
	_ = godotenv.Load()

	cfg := config.Load()
	log := helper.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// database whatsmeow (credential store)
	container, err := database.InitWhatsmeow(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init whatsmeow DB")
	}

	// database routing session -> device
	appDB, err := database.OpenAppDB(ctx, cfg.AppDatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect app DB")
	}
	defer appDB.Close()

	devices := model.NewSessionDeviceStore(appDB)
	if len(os.Args) > 1 && os.Args[1] == "--createschema" {
		if err := devices.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create schema")
		}
		log.Info().Msg("Schema session_devices ready")
	}

	// realtime publishers: websocket hub + webhook (opsional)
	var publishers ws.Fanout
	var hub *ws.Hub
	if cfg.EnableWebsocket {
		hub = ws.NewHub(log)
		go hub.Run()
		defer hub.Stop()
		publishers = append(publishers, hub)
	}
	if cfg.WebhookURL != "" {
		publishers = append(publishers, service.NewWebhookPublisher(cfg.WebhookURL, cfg.WebhookSecret, log))
	}
	log.Info().
		Bool("websocket", cfg.EnableWebsocket).
		Bool("webhook", cfg.WebhookURL != "").
		Bool("jwt", cfg.JWTSecret != "").
		Dur("qr_timeout", cfg.QRTimeout).
		Dur("qr_ttl", cfg.QRFreshness).
		Msg("feature flags")

	provider := service.NewWhatsmeowProvider(container, devices, cfg.DeviceName, log)
	registry := service.NewRegistry(provider, service.RegistryOptions{
		QRTimeout:     cfg.QRTimeout,
		QRFreshness:   cfg.QRFreshness,
		PairTimeout:   cfg.PairTimeout,
		CreateTimeout: cfg.CreateTimeout,
		Realtime:      publishers,
		Logger:        log,
	})
	defer registry.Close()

	e := newServer(cfg, log)

	var auth []echo.MiddlewareFunc
	if cfg.JWTSecret != "" {
		auth = append(auth, customMiddleware.JWTAuthMiddleware(cfg.JWTSecret))
	} else {
		log.Warn().Msg("JWT_SECRET is not set, API is open")
	}
	handler.Routes(e, handler.NewSessionHandler(registry), hub, auth...)

	go func() {
		// bind ke semua interface, bukan hanya 127.0.0.1
		log.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

func newServer(cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Dur("latency", v.Latency).Msg("request")
			return nil
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: []string{
			echo.GET,
			echo.POST,
			echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
	}))

	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: cfg.RateWindow,
			},
		),
	}))

	return e
}
