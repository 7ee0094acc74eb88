package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/notes-bin/imgshare/internal/api"
	"github.com/notes-bin/imgshare/internal/auth"
	"github.com/notes-bin/imgshare/internal/config"
	"github.com/notes-bin/imgshare/internal/database"
	"github.com/notes-bin/imgshare/internal/metrics"
	"github.com/notes-bin/imgshare/internal/redis"
	"github.com/notes-bin/imgshare/internal/service"
	"github.com/notes-bin/imgshare/internal/storage"
	"github.com/notes-bin/imgshare/internal/store"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 初始化日志
	slog.SetDefault(newLogger(cfg.Log))

	// 初始化数据库
	db, err := database.Open(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// 初始化 Redis
	redisClient, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// 初始化文件存储
	files, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	if c, ok := files.(io.Closer); ok {
		defer c.Close()
	}

	// 监控指标
	m := metrics.New()
	if sqlDB, err := db.DB(); err == nil {
		if err := m.RegisterDB(sqlDB); err != nil {
			slog.Warn("Failed to register database metrics", "error", err)
		}
	}

	svc := service.New(
		store.New(db),
		files,
		auth.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, redisClient),
		service.WithViews(redisClient),
		service.WithMetrics(m),
	)

	// 创建默认管理员
	if err := svc.EnsureAdmin(context.Background(), cfg.Admin); err != nil {
		slog.Error("Failed to create admin user", "error", err)
		os.Exit(1)
	}

	// 设置路由
	router := api.SetupRouter(cfg, svc, m)

	// 启动服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		slog.Info("Server starting on port", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		return
	}
	slog.Info("Server stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
