package handlers

import (
	"wifi_tracker/internal/logger"
	"wifi_tracker/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
// Every route is read-only.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestIDMiddleware, h.accessLogMiddleware)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/stats", h.getStats)

	h.registerDeviceRoutes(router)

	// Periodic device snapshots over WebSocket, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerDeviceRoutes(r *gin.Engine) {
	r.GET("/", h.listDevices)
	r.GET("/mac/:mac", h.getDevice)
	r.GET("/online", h.listOnline)
	r.GET("/offline", h.listOffline)
	r.GET("/ap", h.listAccessPoints)
	r.GET("/ap/:ap", h.listByAccessPoint)
}
