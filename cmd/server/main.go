package main

import (
	"log"
	"strconv"
	"time"

	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/config"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/database"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/handlers"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/llm"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/logger"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/middleware"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/scoring"
	"github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/internal/services"

	_ "github.com/gabrielk-coder/Website-for-Hint-Generation-and-Evaluation/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Hint Generation and Evaluation API
// @version         1.0
// @description     Session-scoped backend for generating question hints and evaluating them with automatic metrics
// @host            localhost:8001
// @BasePath        /

func main() {
	cfg := config.Load()

	lg, err := logger.New(cfg.AppMode)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		lg.Fatalw("failed to connect to database", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		lg.Fatalw("failed to migrate database", "error", err)
	}

	llmClient := llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.EmbeddingModel, lg)
	scorer := scoring.NewHTTPScorer(cfg.ScorerBaseURL, lg)
	defer scorer.Close()

	questionService := services.NewQuestionService(db)
	hintService := services.NewHintService(db, llmClient)
	candidateService := services.NewCandidateService(db, llmClient)
	generationService := services.NewGenerationService(db, llmClient)
	evaluationService := services.NewEvaluationService(db, llmClient, scorer, lg)
	saveloadService := services.NewSaveLoadService(db, llmClient, lg)

	hintevalHandler := handlers.NewHintEvalHandler(generationService, evaluationService, questionService, hintService, candidateService)
	metricsHandler := handlers.NewMetricsHandler(hintService)
	saveloadHandler := handlers.NewSaveLoadHandler(saveloadService)

	if cfg.AppMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Session())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	hinteval := r.Group("/hinteval")
	{
		hinteval.POST("/generate", hintevalHandler.Generate)
		hinteval.POST("/regenerate_answer", hintevalHandler.RegenerateAnswer)
		hinteval.POST("/regenerate_candidates", hintevalHandler.RegenerateCandidates)
		hinteval.POST("/evaluate", hintevalHandler.Evaluate)
		hinteval.GET("/session_state", hintevalHandler.SessionState)
		hinteval.GET("/get_question", hintevalHandler.GetQuestion)
		hinteval.GET("/get-hints", hintevalHandler.GetHints)
		hinteval.GET("/get_candidates", hintevalHandler.GetCandidates)
		hinteval.POST("/save_hint", hintevalHandler.SaveHint)
		hinteval.POST("/update_hint", hintevalHandler.UpdateHint)
		hinteval.POST("/delete_hint", hintevalHandler.DeleteHint)
		hinteval.POST("/delete_all_hints", hintevalHandler.DeleteAllHints)
		hinteval.POST("/save_candidate", hintevalHandler.SaveCandidate)
		hinteval.POST("/delete_candidate", hintevalHandler.DeleteCandidate)
		hinteval.POST("/delete_all_candidates", hintevalHandler.DeleteAllCandidates)
		hinteval.POST("/set_groundtruth", hintevalHandler.SetGroundTruth)
		hinteval.POST("/update_answer", hintevalHandler.UpdateAnswer)
		hinteval.POST("/reset_all", hintevalHandler.ResetAll)
	}

	metrics := r.Group("/metrics")
	{
		metrics.GET("/get_metrics", metricsHandler.GetMetrics)
		metrics.GET("/get_convergence_scores", metricsHandler.GetConvergenceScores)
		metrics.GET("/get_embedding_similarities", metricsHandler.GetEmbeddingSimilarities)
		metrics.GET("/get_entities", metricsHandler.GetEntities)
	}

	saveload := r.Group("/save_and_load")
	{
		saveload.GET("/export", saveloadHandler.Export)
		saveload.POST("/import", saveloadHandler.Import)
		saveload.POST("/clear_data", saveloadHandler.ClearData)
		saveload.POST("/load_preset", saveloadHandler.LoadPreset)
	}

	if hours, _ := strconv.Atoi(cfg.ResetIntervalHours); hours > 0 {
		ticker := time.NewTicker(time.Duration(hours) * time.Hour)
		go func() {
			for range ticker.C {
				if err := database.ResetAll(db); err != nil {
					lg.Errorw("periodic reset failed", "error", err)
				} else {
					lg.Infow("periodic reset completed")
				}
			}
		}()
	}

	lg.Infow("server starting", "port", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		lg.Fatalw("failed to start server", "error", err)
	}
}
