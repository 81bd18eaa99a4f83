package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"resortbook/internal/app/reqctx"
	"resortbook/internal/infra/config"
	"resortbook/internal/infra/obs"
)

type Handlers struct {
	Rooms        RoomHandler
	Availability AvailabilityHandler
	Booking      BookingHandler
	Me           MeHandler
	Admin        AdminHandler
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSAllowOrigins)))
	router.Use(GatewayPrincipal())

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")

	api.GET("/rooms", h.Rooms.Catalog)
	api.GET("/rooms/:id", h.Rooms.Get)
	api.GET("/rooms/:id/quote", h.Rooms.Quote)
	api.GET("/rooms/:id/availability", h.Availability.Check)
	api.GET("/rooms/:id/calendar", h.Availability.Calendar)

	api.POST("/bookings", h.Booking.Create)
	api.GET("/bookings/:id", h.Booking.Get)

	meGroup := api.Group("/me")
	meGroup.GET("/bookings", h.Me.ListBookings)
	meGroup.POST("/bookings/:id/cancel", h.Booking.Cancel)

	adminGroup := api.Group("/admin", RequireRole(reqctx.RoleAdmin))
	adminGroup.GET("/rooms", h.Admin.ListRooms)
	adminGroup.POST("/rooms", h.Admin.CreateRoom)
	adminGroup.PUT("/rooms/:id", h.Admin.UpdateRoom)
	adminGroup.DELETE("/rooms/:id", h.Admin.DeleteRoom)
	adminGroup.POST("/rooms/:id/activate", h.Admin.ActivateRoom)
	adminGroup.POST("/rooms/:id/deactivate", h.Admin.DeactivateRoom)
	adminGroup.GET("/rooms/:id/conflicts", h.Admin.Conflicts)
	adminGroup.GET("/bookings", h.Admin.ListBookings)
	adminGroup.POST("/bookings/:id/confirm", h.Admin.ConfirmBooking)
	adminGroup.POST("/bookings/:id/cancel", h.Admin.CancelBooking)
	adminGroup.GET("/audit", h.Admin.Audit)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader,
			HeaderUserID, HeaderUserEmail, HeaderUserName, HeaderUserRoles,
		},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
