package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/portfolio/api/handler"
)

type Handlers struct {
	Transaction *apiHandler.TransactionHandler
	Health      *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	if authMiddleware == nil {
		authMiddleware = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")
	api.GET("/transactions", authMiddleware(handlers.Transaction.List))
	api.POST("/transactions", authMiddleware(handlers.Transaction.Create))
	api.GET("/transactions/{id}", authMiddleware(handlers.Transaction.Get))
	api.PUT("/transactions/{id}", authMiddleware(handlers.Transaction.Update))
	api.DELETE("/transactions/{id}", authMiddleware(handlers.Transaction.Delete))

	return r
}
