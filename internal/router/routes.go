package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/himtika/proposal-tracker/internal/auth"
	"github.com/himtika/proposal-tracker/internal/config"
	"github.com/himtika/proposal-tracker/internal/entity"
	"github.com/himtika/proposal-tracker/internal/handler"
	middlewarepkg "github.com/himtika/proposal-tracker/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Profile     *handler.ProfileHandler
	Users       *handler.UserAdminHandler
	Companies   *handler.CompaniesHandler
	AdminUpload *handler.AdminUploadHandler
	// Actors resolves the stored role behind admin routes.
	Actors middlewarepkg.ActorResolver
	// Metrics serves the Prometheus exposition format; nil disables /metrics.
	Metrics http.Handler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, revocations *auth.Revocations, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	if handlers.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(handlers.Metrics))
	}

	authLimit := middlewarepkg.RateLimiter(cfg.RateLimitAuth)
	e.POST("/auth/register", handlers.Auth.Register, authLimit)
	e.POST("/auth/login", handlers.Auth.Login, authLimit)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager, revocations))

	secured.POST("/auth/logout", handlers.Auth.Logout)
	secured.GET("/me", handlers.Profile.Get)
	secured.PATCH("/me", handlers.Profile.Update)

	companies := secured.Group("/companies")
	companies.GET("", handlers.Companies.List)
	companies.POST("", handlers.Companies.Create)
	companies.GET("/stats", handlers.Companies.Stats)
	companies.GET("/export", handlers.Companies.Export)
	companies.GET("/:id", handlers.Companies.Get)
	companies.DELETE("/:id", handlers.Companies.Delete)
	companies.POST("/:id/status/:channel", handlers.Companies.UpdateStatus)
	companies.GET("/:id/compose/:channel", handlers.Companies.Compose)
	companies.POST("/:id/send/:channel", handlers.Companies.Send)

	admin := secured.Group("/admin",
		middlewarepkg.RequireRole(entity.RoleAdmin),
		middlewarepkg.RequireActorRole(handlers.Actors, entity.RoleAdmin),
	)
	admin.POST("/upload-csv", handlers.AdminUpload.UploadCSV)
	admin.POST("/companies/import", handlers.AdminUpload.ImportBackup)
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
}
