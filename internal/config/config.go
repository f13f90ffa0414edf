package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderAzure  LLMProvider = "azure"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	// Emulator bridge
	BridgeURL string        `env:"EMULATOR_BRIDGE_URL" envDefault:"http://127.0.0.1:8777"`
	MaxFrames int           `env:"MAX_FRAMES" envDefault:"10000"`
	Interval  time.Duration `env:"DECISION_INTERVAL" envDefault:"5s"`

	// History & planning
	UseHistoryContext bool `env:"USE_HISTORY_CONTEXT" envDefault:"true"`
	MaxDecisions      int  `env:"MAX_DECISIONS" envDefault:"10"`
	PlanRefreshCycles int  `env:"PLAN_REFRESH_CYCLES" envDefault:"5"`

	// LLM settings
	LLMProvider     LLMProvider `env:"LLM_PROVIDER" envDefault:"openai"`
	PlanProvider    LLMProvider `env:"PLAN_PROVIDER"` // empty: same as LLM_PROVIDER
	OpenAIAPIKey    string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string      `env:"OPENAI_BASE_URL"`
	OpenAIModel     string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AzureEndpoint   string      `env:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey     string      `env:"AZURE_OPENAI_API_KEY"`
	AzureDeployment string      `env:"AZURE_OPENAI_DEPLOYMENT_NAME"`

	YandexOAuthToken string `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string `env:"YANDEX_FOLDER_ID"`

	// Storage
	DataDir        string `env:"DATA_DIR" envDefault:"logs"`
	SessionLogPath string `env:"SESSION_LOG_PATH" envDefault:"logs/session.jsonl"`
	LogFilePath    string `env:"LOG_FILE" envDefault:"logs/zelda_ai.log"`
	AutosaveSpec   string `env:"AUTOSAVE_SPEC" envDefault:"@every 2m"`

	// Optional remote operator surface
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAdminID  int64  `env:"TELEGRAM_ADMIN_ID"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
