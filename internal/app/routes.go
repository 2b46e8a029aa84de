package app

import (
	"github.com/gin-gonic/gin"

	"github.com/sure-link/core/internal/middleware"
	"github.com/sure-link/core/internal/modules/gateway"
	"github.com/sure-link/core/internal/modules/system"
	"github.com/sure-link/core/internal/pkg/response"
)

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	// Per-IP limiter runs on every HTTP route. Socket events have their own
	// in-memory limiter in the gateway.
	r.Use(middleware.RateLimit(a.rc.Raw()))

	r.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name":    "sure-link-core",
			"version": "1.0.0",
		})
	})

	gateway.RegisterRoutes(r, a.hub)

	sysSvc := system.NewService(a.db, a.rc, a.chats, a.sched, a.logger)
	system.NewHandler(sysSvc, a.hub, a.cfg.AdminSecret).RegisterRoutes(r)
}
