// Package mcp exposes the transaction use cases as Model Context Protocol tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	txUC "github.com/fastygo/portfolio/usecase/transaction"
)

const serverName = "portfolio-ledger"

// NewServer registers every transaction tool on a new MCP server.
func NewServer(uc *txUC.UseCase, version string, logger *zap.Logger) *sdk.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}
	server := sdk.NewServer(&sdk.Implementation{Name: serverName, Version: version}, nil)

	sdk.AddTool(server, CreateTransactionTool(), CreateTransactionHandler(uc))
	sdk.AddTool(server, UpdateTransactionTool(), UpdateTransactionHandler(uc))
	sdk.AddTool(server, DeleteTransactionTool(), DeleteTransactionHandler(uc))
	sdk.AddTool(server, GetTransactionTool(), GetTransactionHandler(uc))
	sdk.AddTool(server, ListTransactionsTool(), ListTransactionsHandler(uc))

	logger.Debug("mcp tools registered", zap.Int("count", 5))
	return server
}

// Serve runs server on transport until ctx is canceled or the client disconnects.
func Serve(ctx context.Context, server *sdk.Server, transport sdk.Transport, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("mcp server listening", zap.String("transport", transportName(transport)))
	if err := server.Run(ctx, transport); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func transportName(t sdk.Transport) string {
	switch t.(type) {
	case *sdk.StdioTransport:
		return "stdio"
	case *sdk.InMemoryTransport:
		return "memory"
	default:
		return "custom"
	}
}
