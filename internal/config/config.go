package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
)

type Config struct {
	ListenPort int `env:"PORT" envDefault:"8080"`

	// LLM settings
	LLMProvider      LLMProvider `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string      `env:"GEMINI_API_KEY"`
	GeminiModel      string      `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	OpenAIAPIKey     string      `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string      `env:"OPENAI_BASE_URL"`
	OpenAIModel      string      `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string      `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string      `env:"YANDEX_FOLDER_ID"`

	// Tutor behaviour
	PersonaPromptPath   string        `env:"PERSONA_PROMPT_PATH" envDefault:"prompts/persona_prompt.txt"`
	MaterialDir         string        `env:"MATERIAL_DIR" envDefault:"."`
	MaterialPrefixLimit int           `env:"MATERIAL_PREFIX_LIMIT" envDefault:"30000"`
	SendRetryAttempts   int           `env:"SEND_RETRY_ATTEMPTS" envDefault:"3"`
	SendRetryDelay      time.Duration `env:"SEND_RETRY_DELAY" envDefault:"2s"`

	// Export settings
	SheetsCredentialsPath string `env:"SHEETS_CREDENTIALS_PATH" envDefault:"credentials.json"`
	SpreadsheetTitle      string `env:"SPREADSHEET_TITLE" envDefault:"創傷知情AI家教紀錄"`
	WorksheetTitle        string `env:"WORKSHEET_TITLE" envDefault:"閱讀組"`
	ExportTZOffsetHours   int    `env:"EXPORT_TZ_OFFSET_HOURS" envDefault:"8"`
}

func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
