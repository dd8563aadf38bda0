package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rentloop/rentloop-server/internal/auth"
	"github.com/rentloop/rentloop-server/internal/config"
	"github.com/rentloop/rentloop-server/internal/core"
	"github.com/rentloop/rentloop-server/internal/store"
)

// NewServer builds the HTTP server with the REST API and the realtime endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(LoggerMiddleware(logger), gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := NewAPIHandlers(authService, logger)
	engine.POST("/api/register", api.Register)
	engine.POST("/api/login", api.Login)

	properties := NewPropertyHandlers(st, logger)
	applications := NewApplicationHandlers(st, logger)
	contracts := NewContractHandlers(st, logger)

	authed := engine.Group("/api", AuthMiddleware(authService, logger))
	authed.POST("/properties", properties.CreateProperty)
	authed.GET("/properties", properties.ListProperties)
	authed.GET("/properties/:id", properties.GetProperty)
	authed.POST("/properties/:id/applications", applications.CreateApplication)
	authed.GET("/applications", applications.ListApplications)
	authed.POST("/applications/:id/accept", applications.AcceptApplication)
	authed.GET("/contracts", contracts.ListContracts)
	authed.POST("/contracts/:id/payments", contracts.AddPayment)
	authed.GET("/contracts/:id/payments", contracts.ListPayments)

	engine.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
