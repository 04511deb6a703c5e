package api

import (
	_ "embed"
	"net/http"
	"path/filepath"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/support"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
)

//go:embed openapi.json
var openAPISpec []byte

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Users    users.UserUseCase
	Support  support.SupportUseCase
}

func NewRouter(cfg *config.Config, store limiter.Store, svc Services, log logrus.FieldLogger) (*gin.Engine, error) {
	bookingLimit, err := RateLimit(store, cfg.RateLimit.Booking, "bookings")
	if err != nil {
		return nil, err
	}
	authLimit, err := RateLimit(store, cfg.RateLimit.Auth, "auth")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log), cors.New(corsConfig(cfg.HTTP.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/openapi.json", filepath.Join(cfg.HTTP.SwaggerDir, "openapi.json"))
	} else {
		router.GET("/openapi.json", func(c *gin.Context) {
			c.Data(http.StatusOK, "application/json", openAPISpec)
		})
	}
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	admin := RequireAdmin(svc.Users)
	apiGroup := router.Group("/api")
	NewFlightHandler(svc.Flights, log).Register(apiGroup.Group("/flights"), admin)
	NewBookingHandler(svc.Bookings, log).Register(apiGroup.Group("/bookings"), bookingLimit)
	NewAuthHandler(svc.Users, log).Register(apiGroup.Group("/auth"), authLimit)
	NewMessageHandler(svc.Support, log).Register(apiGroup.Group("/messages"), admin)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
