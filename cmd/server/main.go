package main

import (
	"log"
	"net/http"

	_ "dspgateway/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"dspgateway/internal/auth"
	"dspgateway/internal/config"
	"dspgateway/internal/db"
	"dspgateway/internal/handler"
	"dspgateway/internal/model"
	"dspgateway/internal/repository"
	"dspgateway/internal/router"
	"dspgateway/internal/service"
)

// @title DSP Backend API
// @version 0.1.0
// @description Handles API requests, user authentication, and relays queries to the internal DSP endpoint.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewSQLite(cfg.DBFile)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpiry())
	if err != nil {
		log.Fatalf("jwt init: %v", err)
	}

	userRepo := repository.NewUserRepository(gormDB)
	hasher := auth.NewBcryptHasher()
	guard := auth.NewGuard(jwtService, userRepo)

	authService := service.NewAuthService(userRepo, hasher, jwtService)
	proxyService := service.NewProxyService(cfg.DSPBaseURL, cfg.DSPTimeout())

	authHandler := handler.NewAuthHandler(authService)
	dspHandler := handler.NewDSPHandler(proxyService)

	router.Register(e, cfg, guard, authHandler, dspHandler)

	swaggerHost := cfg.SwaggerHost
	if swaggerHost == "" {
		swaggerHost = "http://localhost:" + cfg.ServerPort
	}
	log.Printf("Swagger documentation available at: %s/swagger/index.html", swaggerHost)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
