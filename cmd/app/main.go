package main

import (
	"context"
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clarita-backend/internal/config"
	"clarita-backend/internal/controller"
	"clarita-backend/internal/db"
	"clarita-backend/internal/llm"
	"clarita-backend/internal/model"
	"clarita-backend/internal/repository"
	"clarita-backend/internal/service"
	logger "clarita-backend/pkg/logging"
	"clarita-backend/pkg/middleware"
	"clarita-backend/utilities"
)

const version = "1.0.0"

func main() {
	printStartUpBanner()

	// Secrets (GEMINI_API_KEY, JWT secrets) come from the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.xml")
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logDir := cfg.Context.LogDir
	if logDir == "" {
		logDir = "logs"
	}
	logger.Init(logDir, cfg.Context.Mode)
	defer logger.Sync()

	db.InitDBFromConfig(cfg)
	if err := db.GetDB().AutoMigrate(
		&model.User{},
		&model.Upload{},
		&model.Quiz{},
		&model.Question{},
		&model.QuizAttempt{},
	); err != nil {
		logger.Fatal("migration failed: %v", err)
	}

	// Repositories.
	userRepo := repository.NewUserRepository()
	uploadRepo := repository.NewUploadRepository()
	quizRepo := repository.NewQuizRepository()
	attemptRepo := repository.NewAttemptRepository()

	// Generator.
	gemini, err := llm.NewGeminiClient(context.Background(), cfg.THIRD_PARTY.GeminiModel, cfg.THIRD_PARTY.GeminiTimeout)
	if err != nil {
		logger.Fatal("failed to initialise Gemini client: %v", err)
	}
	defer gemini.Close()

	// Services.
	bus := utilities.GlobalEventBus
	authService := service.NewAuthService(userRepo)
	uploadService := service.NewUploadService(uploadRepo)
	quizService := service.NewQuizService(quizRepo, uploadRepo, gemini, bus)
	attemptService := service.NewAttemptService(attemptRepo, quizService, bus)
	statsService := service.NewStatsService(attemptRepo, quizRepo)
	exportService := service.NewExportService()

	registerEventListeners(bus)

	if cfg.Context.Mode == "prod" || cfg.Context.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	if cfg.RequestDump {
		r.Use(middleware.RequestDumpMiddleware())
	}

	controller.RegisterRoutes(r, cfg, authService, uploadService, quizService, attemptService, statsService, exportService)

	addr := fmt.Sprintf("%s:%d", cfg.Context.Host, cfg.Context.Port)
	logger.Info("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped: %v", err)
	}
}

func registerEventListeners(bus *utilities.EventBus) {
	bus.Subscribe(utilities.EventQuizGenerated, func(data interface{}) {
		logger.Info("quiz %v generated", data)
	})
	bus.Subscribe(utilities.EventQuizRegenerated, func(data interface{}) {
		logger.Info("quiz %v regenerated", data)
	})
	bus.Subscribe(utilities.EventAttemptSubmitted, func(data interface{}) {
		logger.Info("attempt %v submitted", data)
	})
}

func printStartUpBanner() {
	myFigure := figure.NewFigure("CLARITA", "", true)
	myFigure.Print()

	fmt.Println("======================================================")
	fmt.Printf("CLARITA API (v%s)\n\n", version)
}
