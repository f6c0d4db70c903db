package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pustaka-be/internal/cache"
	"pustaka-be/internal/config"
	"pustaka-be/internal/db"
	"pustaka-be/internal/logger"
	"pustaka-be/internal/order"
	"pustaka-be/internal/payment"
	"pustaka-be/internal/rest"
	"pustaka-be/internal/shipping"
	"pustaka-be/internal/store"
	"pustaka-be/internal/voucher"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	c, err := cache.NewRedis(cfg)
	if err != nil {
		logger.L().Warn("redis unavailable, using in-process cache", zap.Error(err))
		c = cache.NewMemory()
	}

	rajaongkir := shipping.NewRajaOngkirClient(cfg)
	resolver := shipping.NewCostResolver(rajaongkir, c)
	gateway := payment.NewMidtransGateway(cfg)

	uow := order.NewUnitOfWork(database)
	orderSvc := order.NewService(uow, resolver, gateway)

	voucherSvc := voucher.NewService(voucher.NewRepository(database))
	storeRepo := store.NewRepository(database)

	handler := rest.NewHandler(orderSvc, voucherSvc, resolver, storeRepo)
	router := rest.NewRouter(cfg, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.L().Info("🚀 server listening", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("forced shutdown", zap.Error(err))
	}
	logger.L().Info("server stopped")
}
