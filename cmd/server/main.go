package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toeicgenius/assessment_service/internal/analysis"
	"github.com/toeicgenius/assessment_service/internal/audio"
	"github.com/toeicgenius/assessment_service/internal/client"
	"github.com/toeicgenius/assessment_service/internal/config"
	"github.com/toeicgenius/assessment_service/internal/grammar"
	handler "github.com/toeicgenius/assessment_service/internal/handler/http"
	"github.com/toeicgenius/assessment_service/internal/logger"
	"github.com/toeicgenius/assessment_service/internal/server"
	"github.com/toeicgenius/assessment_service/internal/service"
)

// serviceStatus reports which upstream integrations are usable, for the
// health endpoint.
type serviceStatus struct {
	speech  *client.AzureSpeechClient
	gemini  *client.GeminiClient
	grammar *grammar.Checker
}

func (s serviceStatus) GeminiConfigured() bool        { return s.gemini != nil }
func (s serviceStatus) AzureSpeechConfigured() bool   { return s.speech.Configured() }
func (s serviceStatus) GrammarCheckerAvailable() bool { return s.grammar.Available() }

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info().Str("env", cfg.Environment).Msg("Starting assessment_service")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients
	speechClient := client.NewAzureSpeechClient(cfg.AzureSpeechKey, cfg.AzureSpeechRegion, cfg.TranscribeTimeout)
	log.Info().Str("region", cfg.AzureSpeechRegion).Msg("Azure Speech client initialized")

	geminiClient, err := client.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	}
	log.Info().Msg("Gemini client initialized")

	var fallback analysis.TextProvider
	if cfg.OpenAIAPIKey != "" {
		fallback = client.NewOpenAIClient(cfg.OpenAIAPIKey)
		log.Info().Msg("OpenAI fallback client initialized")
	} else {
		log.Info().Msg("No OpenAI key set, running without fallback model")
	}

	grammarChecker := grammar.NewChecker(cfg.LanguageToolURL, log)
	if grammarChecker.Available() {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := grammarChecker.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Msg("LanguageTool unreachable at startup, grammar safety net degraded")
		} else {
			log.Info().Str("url", cfg.LanguageToolURL).Msg("LanguageTool checker initialized")
		}
		pingCancel()
	} else {
		log.Info().Msg("No LanguageTool URL set, AI-only grammar analysis")
	}

	// Initialize analysis pipeline and services
	meter := audio.NewMeter(log)
	analyzer := analysis.NewAnalyzer(geminiClient, geminiClient, grammarChecker, fallback, analysis.NewCaches(), log)

	speakingService := service.NewSpeakingService(speechClient, meter, analyzer, log)
	writingService := service.NewWritingService(analyzer, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(serviceStatus{
		speech:  speechClient,
		gemini:  geminiClient,
		grammar: grammarChecker,
	})
	speakingHandler := handler.NewSpeakingHandler(log, speakingService, cfg.MaxUploadMB)
	writingHandler := handler.NewWritingHandler(log, writingService, cfg.MaxUploadMB)

	// Initialize HTTP server
	httpServer := server.NewHTTPServer(cfg, log, healthHandler, speakingHandler, writingHandler)

	// Start HTTP server
	go func() {
		log.Info().Str("address", cfg.HTTPAddress()).Msg("Starting HTTP server")
		if err := httpServer.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server error")
			cancel()
		}
	}()

	healthHandler.SetReady(true)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
