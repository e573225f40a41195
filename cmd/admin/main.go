package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"user-admin/internal/app"
	"user-admin/internal/core/auth"
	"user-admin/internal/core/config"
	"user-admin/internal/core/logger"
	"user-admin/internal/core/server"
	"user-admin/internal/proxy"
	"user-admin/internal/transport/http/handler"
	"user-admin/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(logger.FromConfig(cfg.Log))
	defer cleanup()
	defer logger.RedirectStdLog(log)()

	if err := cfg.ValidateAuth(); err != nil {
		log.Fatal("invalid auth config", zap.Error(err))
	}
	if cfg.App.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	jwter := auth.NewJWTer(cfg.Auth.SessionSecret, cfg.App.Name, cfg.Auth.SessionTTL())
	adminH := handler.NewAdminHandler(a.Users, handler.Options{
		Credentials: auth.Credentials{
			Username:     cfg.Auth.Username,
			Password:     cfg.Auth.Password,
			PasswordHash: cfg.Auth.PasswordHash,
		},
		Sessions:     jwter,
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		UploadDir:    cfg.Upload.Dir,
		UploadMax:    cfg.Upload.MaxBytes,
		Proxy:        proxy.New(time.Duration(cfg.Proxy.TimeoutSec)*time.Second, cfg.Proxy.MaxBytes),
		Log:          log.Named("http"),
	})

	r := router.NewAdminEngine(log, cfg, adminH, jwter)
	srv := server.BuildServer(cfg.Addr(), r, cfg.App.HTTP)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("admin panel starting",
		zap.String("addr", srv.Addr),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin panel start FAILED", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("admin panel stopped gracefully")
}
