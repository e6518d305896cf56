package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/config"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/handler"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/middleware"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Local overrides; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting catalogogeral service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database, cfg.Server.Mode)
	if err != nil {
		zapLogger.Fatal("Failed to open database", zap.Error(err))
	}

	repos := repository.NewRepositories(db)
	services, err := service.NewServices(db, repos, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to init services", zap.Error(err))
	}
	handlers := handler.NewHandlers(services)

	if err := ensureAdmin(services); err != nil {
		zapLogger.Fatal("Failed to ensure admin user", zap.Error(err))
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig, mode string) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	logLevel := logger.Warn
	if mode != "release" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&entity.Produto{},
		&entity.Aplicacao{},
		&entity.ImagemProduto{},
		&entity.User{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

// ensureAdmin bootstraps the first admin account so a fresh install can
// log in. Credentials come from the environment, defaulting to
// admin/admin for local runs.
func ensureAdmin(services *service.Services) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
	}
	return services.Auth.EnsureAdminUser(context.Background(), username, password)
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Part image files are public once stored.
	r.Static("/uploads", cfg.Storage.UploadsDir)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Auth.Login)

		// Catalog reads are open; the storefront consumes them without a
		// session.
		v1.GET("/busca", h.Produto.Buscar)
		v1.GET("/pecas/:id", h.Produto.Detalhe)
		v1.GET("/check_codigo", h.Produto.CheckCodigo)
		v1.GET("/pecas_similares", h.Produto.Autocomplete)
		v1.GET("/datalists", h.Datalist.Get)
		v1.GET("/montadoras", h.Aplicacao.MontadorasComVeiculos)
		v1.GET("/montadora_por_veiculo", h.Aplicacao.MontadoraPorVeiculo)
		v1.GET("/exportar/csv", h.Export.CSV)
		v1.GET("/exportar/xlsx", h.Export.XLSX)

		// Mutations require a login.
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
		{
			authorized.POST("/pecas", h.Produto.Create)
			authorized.PUT("/pecas/:id", h.Produto.Update)
			authorized.DELETE("/pecas/:id", h.Produto.Delete)
			authorized.POST("/pecas/:id/clonar", h.Produto.Clone)

			authorized.POST("/pecas/:id/imagens", h.Imagem.Upload)
			authorized.DELETE("/imagens/:id", h.Imagem.Delete)

			authorized.DELETE("/aplicacoes/:id", h.Aplicacao.Delete)

			authorized.POST("/importar/csv", h.Import.CSV)

			// User management is admin-only.
			usuarios := authorized.Group("/usuarios")
			usuarios.Use(middleware.AdminOnly())
			{
				usuarios.GET("", h.Auth.ListUsers)
				usuarios.POST("", h.Auth.CreateUser)
				usuarios.DELETE("/:id", h.Auth.DeleteUser)
				usuarios.PUT("/:id/senha", h.Auth.ChangePassword)
			}
		}
	}
}
