package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"grievancedesk/internal/auth"
	"grievancedesk/internal/config"
	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/handler"
	"grievancedesk/internal/metrics"
	"grievancedesk/internal/storage"
	"grievancedesk/internal/telemetry"
)

// ServiceName labels traces and logs.
const ServiceName = "grievancedesk"

// Handlers groups the HTTP handlers the route table needs.
type Handlers struct {
	Auth       *handler.AuthHandler
	Grievance  *handler.GrievanceHandler
	Department *handler.DepartmentHandler
	User       *handler.UserHandler
	Health     *handler.HealthHandler
}

// Observability carries the process-wide collectors.
type Observability struct {
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// uploadBodyLimit leaves room for the form fields around a maximum-size photo.
const uploadBodyLimit = "6M"

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	gate *auth.Gate,
	obs Observability,
	h Handlers,
) {
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(logger)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, auth.HeaderToken},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(telemetry.Middleware(otel.GetTracerProvider(), ServiceName))
	if obs.Metrics != nil {
		e.Use(obs.Metrics.Middleware())
	}
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(cfg.RequestTimeout))
	}

	e.Static("/"+storage.PublicPrefix, cfg.UploadDir)
	e.GET("/healthz", h.Health.Health)
	if obs.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(obs.Gatherer)))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	strict := gate.Strict()
	soft := gate.Soft()
	limiter := authLimiter(cfg.AuthRatePerMinute)
	upload := middleware.BodyLimit(uploadBodyLimit)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login, limiter)
	authGroup.POST("/register", h.Auth.Register, limiter)
	authGroup.POST("/register-by-admin", h.Auth.RegisterByAdmin, strict)
	authGroup.POST("/logout", h.Auth.Logout, strict)
	authGroup.DELETE("/me", h.Auth.DeleteMe, strict)

	// echo matches static segments before /:id.
	grievances := api.Group("/grievances")
	grievances.GET("/categories", h.Grievance.Categories, soft)
	grievances.GET("/my-grievances", h.Grievance.ListMine, strict)
	grievances.GET("/department", h.Grievance.DepartmentQueue, strict)
	grievances.GET("/stats", h.Grievance.Stats, strict)
	grievances.POST("", h.Grievance.Create, strict, upload)
	grievances.GET("", h.Grievance.ListAll, strict)
	grievances.PUT("/:id/status", h.Grievance.UpdateStatus, strict)
	grievances.GET("/:id", h.Grievance.Get, strict)
	grievances.PUT("/:id", h.Grievance.Update, strict, upload)
	grievances.DELETE("/:id", h.Grievance.Delete, strict)

	departmentRoutes(api.Group("/department"), h.Department, strict, soft)
	settings := api.Group("/settings")
	departmentRoutes(settings.Group("/departments"), h.Department, strict, soft)
	settings.GET("/categories", h.Grievance.Categories, strict)

	admin := api.Group("/admin", strict)
	admin.GET("/admins", h.User.ListAdmins)
	admin.PUT("/admins/:id", h.User.UpdateAdmin)
	admin.DELETE("/admins/:id", h.User.DeleteAdmin)
	admin.GET("/citizens", h.User.ListCitizens)
	admin.PUT("/citizens/:id", h.User.UpdateCitizen)
	admin.DELETE("/citizens/:id", h.User.DeleteCitizen)
}

func departmentRoutes(g *echo.Group, h *handler.DepartmentHandler, strict, soft echo.MiddlewareFunc) {
	g.GET("", h.List, soft)
	g.POST("", h.Create, strict)
	g.PUT("/:id", h.Rename, strict)
	g.DELETE("/:id", h.Delete, strict)
}

// authLimiter bounds login and register attempts per client IP.
func authLimiter(perMinute int) echo.MiddlewareFunc {
	if perMinute <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(float64(perMinute) / 60),
		Burst:     perMinute,
		ExpiresIn: 3 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{Msg: "Unable to identify client", Code: "RATE_LIMIT"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{Msg: "Too many requests, please try again later.", Code: "RATE_LIMIT"})
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
