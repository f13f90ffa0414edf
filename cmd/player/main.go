package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"zelda-ai/internal/config"
	"zelda-ai/internal/console"
	"zelda-ai/internal/controller"
	"zelda-ai/internal/emulator"
	"zelda-ai/internal/history"
	"zelda-ai/internal/llm"
	"zelda-ai/internal/player"
	"zelda-ai/internal/scheduler"
	"zelda-ai/internal/storage"
	"zelda-ai/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	setupLogging(cfg.LogFilePath)

	emu := emulator.NewBridge(cfg.BridgeURL)

	provider, err := newDecisionProvider(cfg)
	if err != nil {
		log.Fatalf("failed to create decision provider: %v", err)
	}
	planProvider, err := newPlanProvider(cfg, provider)
	if err != nil {
		log.Printf("failed to create plan provider, planning disabled: %v", err)
	}

	hist := history.NewManager(cfg.MaxDecisions, cfg.DataDir)
	if err := hist.LoadFromFile(); err != nil {
		log.Printf("starting with empty history: %v", err)
	}

	ctrl := controller.New(emu)
	controls := &console.Controls{}

	var rec storage.Recorder
	if cfg.SessionLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.SessionLogPath)
		if err != nil {
			log.Printf("failed to init session recorder: %v", err)
		} else {
			rec = fr
		}
	}

	p := player.New(
		emu,
		provider,
		planProvider,
		hist,
		ctrl,
		controls,
		rec,
		cfg.Interval,
		cfg.MaxFrames,
		cfg.PlanRefreshCycles,
		cfg.UseHistoryContext,
		cfg.DataDir,
	)

	console.NewListener(controls, p.Status).Start()

	sched := scheduler.New()
	sched.SetSaveFunction(hist.SaveToFile)
	if err := sched.Start(cfg.AutosaveSpec); err != nil {
		log.Printf("failed to start autosave scheduler: %v", err)
	}
	defer sched.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TelegramBotToken != "" && cfg.TelegramAdminID != 0 {
		bot, err := telegram.New(cfg.TelegramBotToken, cfg.TelegramAdminID, controls, p.Status)
		if err != nil {
			log.Printf("failed to create telegram bot: %v", err)
		} else {
			go bot.Start(ctx)
		}
	}

	p.Run(ctx)
}

func setupLogging(path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("failed to ensure log dir: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", path, err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

func newDecisionProvider(cfg *config.Config) (llm.DecisionProvider, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case config.ProviderAzure:
		return llm.NewAzure(cfg.AzureAPIKey, cfg.AzureEndpoint, cfg.AzureDeployment), nil
	default:
		return nil, fmt.Errorf("unknown decision provider: %s", cfg.LLMProvider)
	}
}

// newPlanProvider resolves the plan backend; it defaults to the decision
// provider when it can plan (OpenAI/Azure clients can).
func newPlanProvider(cfg *config.Config, decisionProvider llm.DecisionProvider) (llm.PlanProvider, error) {
	prov := cfg.PlanProvider
	if prov == "" {
		prov = cfg.LLMProvider
	}
	switch prov {
	case config.ProviderOpenAI, config.ProviderAzure:
		if pp, ok := decisionProvider.(llm.PlanProvider); ok && prov == cfg.LLMProvider {
			return pp, nil
		}
		if prov == config.ProviderOpenAI {
			return llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
		}
		return llm.NewAzure(cfg.AzureAPIKey, cfg.AzureEndpoint, cfg.AzureDeployment), nil
	case config.ProviderYandex:
		return llm.NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("unknown plan provider: %s", prov)
	}
}
