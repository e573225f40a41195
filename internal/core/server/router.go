package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-admin/internal/core/config"
	"user-admin/internal/transport/http/middleware"
)

// NewRouter returns an engine with request ids, masked access logs, zap panic
// recovery, CORS and HTTP metrics. Credentials are allowed only for explicitly
// listed origins since the session lives in a cookie.
func NewRouter(l *zap.Logger, c config.HTTP) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(l, "/health", "/metrics"))
	r.Use(ginzap.CustomRecoveryWithZap(l, true, middleware.RecoveryResponse))

	cc := cors.DefaultConfig()
	if len(c.AllowedOrigins) > 0 {
		cc.AllowOrigins = c.AllowedOrigins
		cc.AllowCredentials = true
	} else {
		cc.AllowAllOrigins = true
	}
	cc.AddAllowHeaders("Authorization", middleware.KeyRequestID)
	cc.AddExposeHeaders(middleware.KeyRequestID, "Content-Disposition")
	r.Use(cors.New(cc))

	r.Use(middleware.Metrics())
	if c.MaxInFlight > 0 {
		r.Use(middleware.ConcurrencyLimit(int64(c.MaxInFlight)))
	}
	return r
}

func StartHTTP(srv *http.Server, l *zap.Logger) error {
	l.Info("http starting", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

func BuildServer(addr string, handler http.Handler, c config.HTTP) *http.Server {
	return &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    time.Duration(c.ReadTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(c.WriteTimeoutSec) * time.Second,
		IdleTimeout:    time.Duration(c.IdleTimeoutSec) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}
