package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoswagger "github.com/swaggo/echo-swagger"

	_ "github.com/lims-qc/identity-service/docs"
	"github.com/lims-qc/identity-service/internal/api/handler"
	"github.com/lims-qc/identity-service/internal/api/middleware"
	"github.com/lims-qc/identity-service/internal/core/domain"
	"github.com/lims-qc/identity-service/internal/core/ports"
	"github.com/lims-qc/identity-service/internal/infrastructure/http/handlers"
)

// NewRouter builds the Echo instance with all routes registered. The user
// service arrives fully constructed — which storage backend sits underneath
// is main's decision, not the router's.
func NewRouter(
	userService ports.UserService,
	codec ports.TokenCodec,
	readiness *handlers.ReadinessHandler,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Operational endpoints (no auth required) ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoswagger.WrapHandler)

	healthHandler := handlers.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readiness.Readiness)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(userService)
	authMiddleware := middleware.Auth(codec)

	v1 := e.Group("/api/v1")

	// Registration and login are the only open routes.
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/users", userHandler.Create)

	users := v1.Group("/users", authMiddleware)
	users.GET("", userHandler.List)
	users.GET("/me", userHandler.Me)
	users.GET("/:id", userHandler.Get)
	users.PATCH("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete, middleware.RBAC(domain.RoleAdmin))

	return e
}
