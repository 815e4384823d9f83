// Package gateway exposes the inventory use cases over REST under /api/inventory.
package gateway

import (
	"net/http"

	"github.com/fekuna/fabshop-inventory-service/internal/auth"
	"github.com/fekuna/fabshop-inventory-service/internal/bom"
	"github.com/fekuna/fabshop-inventory-service/internal/consumption"
	"github.com/fekuna/fabshop-inventory-service/internal/inventory"
	"github.com/fekuna/fabshop-inventory-service/internal/logger"
	"github.com/fekuna/fabshop-inventory-service/internal/material"
	"github.com/fekuna/fabshop-inventory-service/internal/settings"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Settings    settings.UseCase
	Materials   material.UseCase
	Ledger      inventory.UseCase
	Boms        bom.UseCase
	Consumption consumption.UseCase
}

type Options struct {
	Tokens         *auth.TokenParser
	AuthRequired   bool
	AllowedOrigins []string
}

type server struct {
	svc    Services
	logger logger.ZapLogger
}

func NewRouter(svc Services, opts Options, log logger.ZapLogger) *gin.Engine {
	r := gin.New()
	r.Use(requestID())
	r.Use(accessLog(log))
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	s := &server{svc: svc, logger: log}
	api := r.Group("/api/inventory")
	api.Use(authenticate(opts.Tokens, opts.AuthRequired))

	api.GET("/settings", s.getSettings)
	api.PATCH("/settings", s.updateSettings)

	api.GET("/materials", s.listMaterials)
	api.POST("/materials", s.createMaterial)
	api.GET("/materials/:id", s.getMaterial)
	api.PATCH("/materials/:id", s.updateMaterial)
	api.GET("/materials/:id/ledger", s.getLedger)
	api.GET("/materials/:id/ledger/export", s.exportLedger)
	api.POST("/materials/:id/receive", s.receive)
	api.POST("/materials/:id/adjust", s.adjust)

	api.GET("/orders/:orderId/bom", s.getOrderBom)
	api.PUT("/orders/:orderId/bom", s.upsertOrderBom)
	api.POST("/orders/:orderId/consume", s.consumeForOrder)

	return r
}

// corsConfig allows every origin unless an allowlist is configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowMethods("PATCH")
	cfg.AddAllowHeaders("Authorization", HeaderRequestID)
	cfg.AddExposeHeaders(HeaderRequestID, "Content-Disposition")
	return cfg
}
