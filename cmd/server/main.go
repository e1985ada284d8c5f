package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/portfolio/api/handler"
	"github.com/fastygo/portfolio/internal/app"
	"github.com/fastygo/portfolio/internal/config"
	"github.com/fastygo/portfolio/internal/middleware"
	"github.com/fastygo/portfolio/internal/router"
	"github.com/fastygo/portfolio/pkg/httpcontext"
	"github.com/fastygo/portfolio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Fields:   map[string]string{"app": cfg.AppName, "env": cfg.Environment},
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ledger, err := app.New(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("startup failed", zap.Error(err))
	}

	appCtx, stop := ledger.Lifecycle.SignalContext(context.Background())
	defer stop()

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	handlers := router.Handlers{
		Transaction: apiHandler.NewTransactionHandler(ledger.Transactions, ctxAdapter, zapLogger.Named("http")),
		Health:      apiHandler.NewHealthHandler(ledger.Monitor, ctxAdapter, zapLogger.Named("http")),
	}

	if cfg.JWT.Secret == "" {
		zapLogger.Warn("JWT_SECRET is empty; the transactions API is unauthenticated")
	}
	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		serveErr <- server.ListenAndServe(cfg.Address())
	}()

	ledger.Lifecycle.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	select {
	case <-appCtx.Done():
	case err := <-serveErr:
		if err != nil {
			zapLogger.Error("server crashed", zap.Error(err))
		}
	}

	if err := ledger.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
