package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	DatabaseURL string

	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIURL    string
	DefaultLLM   string

	RubricPath   string
	ProfilesPath string
	PromptDir    string
	LogMode      string

	ResultCacheTTL   time.Duration
	BatchConcurrency int

	TelegramBotToken string
	WebhookURL       string
	DefaultClassID   string
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("env %s: %w", k, err)
	}
	return d, nil
}

func getInt(k string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("env %s: want positive integer, got %q", k, v)
	}
	return n, nil
}

// Load читает окружение. Ключи движков необязательны по отдельности,
// но хотя бы один должен быть задан.
func Load() (*Config, error) {
	c := &Config{
		Port:        getEnv("PORT", "8000"),
		DatabaseURL: ResolveDSN(),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIURL:    getEnv("OPENAI_BASE_URL", ""),
		DefaultLLM:   strings.ToLower(getEnv("DEFAULT_LLM", "")),

		RubricPath:   getEnv("RUBRIC_PATH", ""),
		ProfilesPath: getEnv("PROFILES_PATH", ""),
		PromptDir:    getEnv("PROMPT_DIR", ""),
		LogMode:      getEnv("LOG_MODE", "dev"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
		DefaultClassID:   getEnv("DEFAULT_CLASS_ID", ""),
	}
	var err error
	if c.ResultCacheTTL, err = getDuration("RESULT_CACHE_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if c.BatchConcurrency, err = getInt("BATCH_CONCURRENCY", 4); err != nil {
		return nil, err
	}

	if c.OpenAIAPIKey == "" && c.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing required env: OPENAI_API_KEY or GEMINI_API_KEY")
	}
	if c.DefaultLLM == "" {
		if c.GeminiAPIKey != "" {
			c.DefaultLLM = "gemini"
		} else {
			c.DefaultLLM = "gpt"
		}
	}
	return c, nil
}

// ResolveDSN: DATABASE_URL, иначе собираем из POSTGRES_*/PG*. Пустая строка: без БД.
func ResolveDSN() string {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		return v
	}
	host := strings.TrimSpace(os.Getenv("PGHOST"))
	if host == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getEnv("POSTGRES_USER", "grader"), os.Getenv("POSTGRES_PASSWORD")),
		Host:     net.JoinHostPort(host, getEnv("PGPORT", "5432")),
		Path:     "/" + getEnv("POSTGRES_DB", "grader"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// SafeDSN: DSN без пароля, для логов.
func SafeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "dsn: parse error"
	}
	return fmt.Sprintf("%s@%s%s", u.User.Username(), u.Host, u.Path)
}
