package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	authrepo "github.com/Kamohel0/green-public-website/internal/auth/repository"
	authservice "github.com/Kamohel0/green-public-website/internal/auth/service"
	"github.com/Kamohel0/green-public-website/internal/auth/token"
	"github.com/Kamohel0/green-public-website/internal/cart/cache"
	cartservice "github.com/Kamohel0/green-public-website/internal/cart/service"
	"github.com/Kamohel0/green-public-website/internal/cart/store"
	catalogrepo "github.com/Kamohel0/green-public-website/internal/catalog/repository"
	"github.com/Kamohel0/green-public-website/internal/checkout/publisher"
	checkoutrepo "github.com/Kamohel0/green-public-website/internal/checkout/repository"
	checkoutservice "github.com/Kamohel0/green-public-website/internal/checkout/service"
	"github.com/Kamohel0/green-public-website/internal/database"
	"github.com/Kamohel0/green-public-website/internal/httpapi"
	"github.com/Kamohel0/green-public-website/internal/payment"
	"github.com/Kamohel0/green-public-website/pkg/config"
	"github.com/Kamohel0/green-public-website/pkg/logger"
	"github.com/Kamohel0/green-public-website/pkg/shutdown"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	// Storage
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	// Cart
	cartStore := store.NewMemoryStore()
	defer cartStore.Close()

	carts := cartservice.NewService(cartStore, cache.NewRedisCache(redisClient), log)

	// Auth
	tokens := token.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	auth := authservice.NewService(authrepo.NewRepository(db), tokens, log)

	// Checkout
	gateway := payment.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentSecretKey, log)
	checkoutRepo := checkoutrepo.NewRepository(db)
	checkout := checkoutservice.NewCheckoutService(checkoutRepo, carts, gateway, cfg.Currency, log)

	poller := publisher.NewOutboxPoller(checkoutRepo, log, cfg.KafkaBrokers...)
	go poller.Run(ctx)

	// HTTP
	authMW := httpapi.NewAuth(tokens)
	catalog := catalogrepo.NewRepository(db)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Products:       httpapi.NewProductHandler(catalog, cfg.RequestTimeout),
		Cart:           httpapi.NewCartHandler(carts, catalog, cfg.Currency, cfg.RequestTimeout),
		Checkout:       httpapi.NewCheckoutHandler(checkout, cfg.RequestTimeout),
		Auth:           httpapi.NewAuthHandler(auth, cfg.RequestTimeout),
		AuthMW:         authMW,
		RequestTimeout: cfg.RequestTimeout,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
