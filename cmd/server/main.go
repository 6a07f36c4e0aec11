package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	contractapp "github.com/grantflow/backend/internal/application/contract"
	grantapp "github.com/grantflow/backend/internal/application/grant"
	"github.com/grantflow/backend/internal/infrastructure/auth"
	"github.com/grantflow/backend/internal/infrastructure/bank"
	"github.com/grantflow/backend/internal/infrastructure/config"
	"github.com/grantflow/backend/internal/infrastructure/logger"
	"github.com/grantflow/backend/internal/infrastructure/persistence"
	"github.com/grantflow/backend/internal/interfaces/http/handler"
	"github.com/grantflow/backend/internal/interfaces/http/middleware"
	"github.com/grantflow/backend/internal/interfaces/http/router"

	_ "github.com/grantflow/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			GrantFlow Backend API
//	@version		1.0
//	@description	Milestone-based grant disbursement backend with contract-gated spending rules

//	@contact.name	API Support
//	@contact.url	https://github.com/grantflow/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting GrantFlow Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	programRepo := persistence.NewGormGrantProgramRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// External bank gateway
	gateway := bank.NewClient(cfg.Bank, log)

	// Application services
	directory := grantapp.NewParticipantDirectory(userRepo)
	grantService := grantapp.NewGrantService(programRepo, directory, gateway, cfg.Bank.FundingAccount, log)
	contractService := contractapp.NewContractService(contractRepo, log)
	purchaseService := contractapp.NewPurchaseService(contractRepo, gateway, log)

	// JWT
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine and middleware chain
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(1 << 20))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsCfg))

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.JWTAuthMiddleware(jwtService))

	// System routes stay outside the versioned API group
	systemHandler := handler.NewSystemHandler(db, "1.0")
	systemHandler.RegisterRoutes(engine)

	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewGrantHandler(grantService))
	r.Register(handler.NewContractHandler(contractService))
	r.Register(handler.NewPurchaseHandler(purchaseService))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}
