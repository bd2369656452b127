package main

import (
	"log"

	"github.com/alkime/intake/internal/config"
	"github.com/alkime/intake/internal/extract"
	"github.com/alkime/intake/internal/logger"
	"github.com/alkime/intake/internal/server"
	"github.com/alkime/intake/internal/stt"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.SetupLogger(cfg)

	logg.Info("Starting intake server",
		"env", cfg.Env,
		"port", cfg.Port,
		"extraction_model_configured", cfg.AnthropicAPIKey != "",
	)

	transcriber := stt.NewWhisperTranscriber(cfg.OpenAIAPIKey)
	extractor := extract.NewClient(cfg.AnthropicAPIKey, logg)

	srv := server.New(cfg, logg, transcriber, extractor)
	if err := server.Run(srv); err != nil {
		logg.Error("Failed to start server", "error", err)
		log.Fatalf("Fatal: %v", err)
	}
}
