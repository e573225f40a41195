package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"user-admin/internal/core/auth"
	"user-admin/internal/core/config"
	"user-admin/internal/core/server"
	"user-admin/internal/transport/http/handler"
	mdw "user-admin/internal/transport/http/middleware"
)

// jsonBodyMax caps every non-upload request body.
const jsonBodyMax = 1 << 20

func NewAdminEngine(l *zap.Logger, cfg *config.Config, h *handler.AdminHandler, jwter *auth.JWTer) *gin.Engine {
	r := server.NewRouter(l, cfg.App.HTTP)

	r.GET("/health", h.Health)
	r.GET("/metrics", mdw.MetricsHandler())

	v1 := r.Group("/admin/v1")

	perMin := rate.Limit(float64(max(cfg.Auth.LoginRatePerMin, 1)) / 60)
	v1.POST("/auth/login",
		mdw.RateLimitPerIP(perMin, max(cfg.Auth.LoginBurst, 1), 10*time.Minute),
		mdw.MaxBodyBytes(jsonBodyMax),
		h.Login,
	)
	v1.POST("/auth/logout", h.Logout)

	admin := v1.Group("")
	admin.Use(mdw.RequireSession(jwter, cfg.Auth.CookieName))

	// imports and exports scale with the table, so only plain CRUD is time boxed
	crud := admin.Group("", mdw.MaxBodyBytes(jsonBodyMax), mdw.Timeout(requestTimeout(cfg)))
	crud.GET("/me", h.Me)
	crud.GET("/dashboard", h.Dashboard)
	crud.GET("/users", h.ListUsers)
	crud.POST("/users", h.CreateUser)
	crud.POST("/users/bulk-delete", h.BulkDeleteUsers)
	crud.GET("/users/:id", h.GetUser)
	crud.PUT("/users/:id", h.UpdateUser)
	crud.DELETE("/users/:id", h.DeleteUser)

	admin.POST("/users/import", mdw.MaxBodyBytes(cfg.Upload.MaxBytes+(1<<20)), h.ImportUsers)
	admin.GET("/users/export", h.ExportUsers)
	admin.POST("/users/export/archive", h.ArchiveUsers)
	admin.GET("/proxy", h.Proxy)

	return r
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.App.HTTP.WriteTimeoutSec <= 1 {
		return 10 * time.Second
	}
	// leave room to write the timeout envelope
	return time.Duration(cfg.App.HTTP.WriteTimeoutSec-1) * time.Second
}
