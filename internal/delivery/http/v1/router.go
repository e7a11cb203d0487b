package v1

import (
	"time"

	"fourwheels-backend/config"
	"fourwheels-backend/internal/delivery/http/middleware"
	"fourwheels-backend/internal/delivery/http/response"
	"fourwheels-backend/internal/domain"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/ratelimit"
	"fourwheels-backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC      domain.ContactUsecase
	HealthUC       domain.HealthUsecase
	RateLimitStore ratelimit.Store
	SecLogger      *security.SecurityLogger
	Config         *config.Config
	StartedAt      time.Time
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.HandleMethodNotAllowed = true
	if !cfg.TrustProxy {
		// ClientIP falls back to the socket address
		_ = r.SetTrustedProxies(nil)
	}

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.Origins())) // CORS must be first!
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())

	r.NoRoute(func(c *gin.Context) {
		notFound := apperror.NotFound()
		response.Error(c, notFound.Status, notFound.Code, "")
	})
	r.NoMethod(func(c *gin.Context) {
		notAllowed := apperror.MethodNotAllowed()
		response.Error(c, notAllowed.Status, notAllowed.Code, "")
	})

	api := r.Group("/api")

	NewHealthHandler(api, deps.StartedAt, deps.HealthUC)
	api.GET("/csrf", middleware.IssueCSRFToken(cfg.CookieSecure))

	contactLimit := middleware.ContactRateLimitConfig(deps.RateLimitStore)
	contactLimit.Max = cfg.RateLimitMax
	contactLimit.Window = cfg.RateLimitWindow
	contactLimit.SecLogger = deps.SecLogger

	formLimit := middleware.FormRateLimitConfig(deps.RateLimitStore)
	formLimit.Max = cfg.FormRateLimitMax
	formLimit.Window = cfg.FormRateLimitWindow
	formLimit.SecLogger = deps.SecLogger

	NewContactHandler(api, deps.ContactUC, ContactRoutes{
		JSON: []gin.HandlerFunc{
			middleware.BodyLimit(cfg.MaxBodyBytes),
			middleware.RateLimitMiddleware(contactLimit),
			middleware.CSRFMiddleware(middleware.CSRFConfig{
				Enabled:   cfg.CSRFEnabled,
				Secure:    cfg.CookieSecure,
				SecLogger: deps.SecLogger,
			}),
		},
		Form: []gin.HandlerFunc{
			middleware.BodyLimit(cfg.MaxBodyBytes),
			middleware.RateLimitMiddleware(formLimit),
			middleware.FormCSRFMiddleware(deps.SecLogger),
		},
	})

	// Swagger
	api.GET("/swagger/*any", middleware.SwaggerHeaders(), ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
