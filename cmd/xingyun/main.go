// Command xingyun is the AI writing assistant CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Qq88537794/Xingyun/internal/adapters/driven/ai"
	"github.com/Qq88537794/Xingyun/internal/adapters/driven/config/file"
	"github.com/Qq88537794/Xingyun/internal/adapters/driving/cli"
	"github.com/Qq88537794/Xingyun/internal/chunker"
	"github.com/Qq88537794/Xingyun/internal/core/ports/driving"
	"github.com/Qq88537794/Xingyun/internal/core/services"
	"github.com/Qq88537794/Xingyun/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore(os.Getenv("XINGYUN_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("initialising config store: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("initialising prompt store: %w", err)
	}
	if err := promptStore.Watch(); err != nil {
		logger.Warn("prompt file watching disabled: %v", err)
	}
	defer promptStore.Close()

	// Providers are optional at startup. Commands that need one fail
	// with a readable message instead of blocking unrelated commands
	// like settings or version.
	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		logger.Warn("LLM provider unavailable: %v", err)
	}
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("embedding provider unavailable: %v", err)
	}

	var knowledge driving.KnowledgeService
	if embedder != nil {
		vectors, err := ai.CreateVectorStore(&settings.Vector)
		if err != nil {
			logger.Warn("vector store unavailable, knowledge base disabled: %v", err)
		} else {
			chk, err := chunker.New(
				chunker.WithStrategy(settings.Chunking.Strategy),
				chunker.WithChunkSize(settings.Chunking.ChunkSize),
				chunker.WithOverlap(settings.Chunking.ChunkOverlap),
			)
			if err != nil {
				return fmt.Errorf("invalid chunking settings: %w", err)
			}
			svc, err := services.NewKnowledgeService(embedder, vectors, chk)
			if err != nil {
				return fmt.Errorf("initialising knowledge service: %w", err)
			}
			knowledge = svc
		}
	}

	assistant := services.NewAssistantService(llm, knowledge, promptStore, settings.Agent)

	cli.SetServices(cli.Services{
		Assistant: assistant,
		Knowledge: knowledge,
		Settings:  settingsService,
		Prompts:   promptStore,
	})

	return cli.Execute()
}
