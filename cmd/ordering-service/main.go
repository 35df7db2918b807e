package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/checkout"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/config"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/db"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/events"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/extract"
	httpapi "github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/http"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/metrics"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/order"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/payment"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/product"
	"github.com/jchristianvieri-gif/tastevision-ai-restaurant/internal/reconcile"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[ordering-service] ", log.LstdFlags|log.Lshortfile)

	if cfg.MidtransServerKey == "" {
		logger.Fatal("MIDTRANS_SERVER_KEY not set")
	}
	if cfg.AdminToken == "" {
		logger.Println("ADMIN_TOKEN not set, admin API disabled")
	}

	// DB
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	orderRepo := order.NewPostgresRepository(pool)
	productRepo := product.NewPostgresRepository(pool)

	// RabbitMQ
	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("create publisher: %v", err)
	}
	defer publisher.Close()

	m := metrics.New(nil)

	gateway := payment.NewSnapClient(cfg.MidtransBaseURL, cfg.MidtransServerKey, cfg.PublicBaseURL)
	checkoutSvc := checkout.NewService(orderRepo, gateway, publisher, m, logger)
	reconciler := reconcile.New(orderRepo, publisher, cfg.MidtransServerKey, m, logger)
	extractor := extract.NewChatClient(cfg.ExtractorBaseURL, cfg.ExtractorAPIKey, cfg.ExtractorModel)

	// HTTP
	handler := httpapi.NewHandler(checkoutSvc, reconciler, orderRepo, productRepo, extractor, logger)
	router := httpapi.NewRouter(handler, cfg.AdminToken)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 70 * time.Second,
	}

	go func() {
		logger.Printf("ordering-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	cancel()
}
