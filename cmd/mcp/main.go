package main

import (
	"context"
	"log"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	mcpAPI "github.com/fastygo/portfolio/api/mcp"
	"github.com/fastygo/portfolio/internal/app"
	"github.com/fastygo/portfolio/internal/config"
	"github.com/fastygo/portfolio/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cfg.Buffer.Path = app.BufferPathFor(cfg.Buffer.Path, "mcp")

	// stdout carries the protocol
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   os.Stderr,
		Fields:   map[string]string{"app": cfg.AppName, "env": cfg.Environment, "component": "mcp"},
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ledger, err := app.New(context.Background(), cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("startup failed", zap.Error(err))
	}

	ctx, stop := ledger.Lifecycle.SignalContext(context.Background())
	defer stop()

	server := mcpAPI.NewServer(ledger.Transactions, version, zapLogger)
	if err := mcpAPI.Serve(ctx, server, &sdk.StdioTransport{}, zapLogger); err != nil {
		zapLogger.Error("mcp server stopped", zap.Error(err))
	}

	if err := ledger.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
