package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shop_platform/internal/cart"
	"github.com/Skotchmaster/shop_platform/internal/catalog"
	"github.com/Skotchmaster/shop_platform/internal/config"
	"github.com/Skotchmaster/shop_platform/internal/discount"
	"github.com/Skotchmaster/shop_platform/internal/httpserver"
	"github.com/Skotchmaster/shop_platform/internal/inventory"
	"github.com/Skotchmaster/shop_platform/internal/logging"
	"github.com/Skotchmaster/shop_platform/internal/mykafka"
	"github.com/Skotchmaster/shop_platform/internal/order"
	"github.com/Skotchmaster/shop_platform/internal/review"
	"github.com/Skotchmaster/shop_platform/internal/search"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database init failed", "error", err)
		os.Exit(1)
	}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = mykafka.NewProducer(cfg.KafkaBrokers, []string{
			mykafka.TopicOrderEvents,
			mykafka.TopicInventoryEvents,
			mykafka.TopicProductEvents,
		})
		if err != nil {
			logger.Error("kafka producer init failed, continuing without events", "error", err)
			producer = nil
		}
	}

	var indexer *search.Indexer
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Error("elasticsearch init failed, continuing without search", "error", err)
		} else {
			indexer = &search.Indexer{ES: es, Index: search.ProductIndex}
		}
	}

	ledger := &inventory.Ledger{DB: db}
	orders := &order.Service{DB: db, Ledger: ledger}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(logging.RequestLogger(logger))

	httpserver.Register(e, httpserver.Deps{
		DB:               db,
		JWTSecret:        cfg.JWTSecret,
		SuperAdminSecret: cfg.SuperAdminSecret,
		Orders:           orders,
		Inventory:        ledger,
		Cart:             &cart.Service{DB: db},
		Catalog:          &catalog.Service{DB: db, Ledger: ledger},
		Discounts:        &discount.Service{DB: db},
		Reviews:          &review.Service{DB: db},
		Producer:         producer,
		Indexer:          indexer,
	})

	go func() {
		addr := ":" + cfg.ServerPort
		logger.Info("server starting", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("producer close failed", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("database close failed", "error", err)
		}
	}
	logger.Info("bye")
}
