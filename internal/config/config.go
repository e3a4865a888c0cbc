package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile         = "NOMADA_CONFIG_FILE"
	defaultConfigFileName = "config.yaml"

	DefaultPort         = "8080"
	DefaultTemporalHost = "localhost:7233"
	DefaultTaskQueue    = "nomada-notifications"
	DefaultDBDriver     = "sqlite"
	DefaultDBDSN        = "databases/nomada.sqlite"
	DefaultOpenAIModel  = "gpt-4o-mini"
	DefaultDuffelURL    = "https://api.duffel.com"
	DefaultCardsURL     = "https://api.duffel.cards"
	DefaultHotelbedsURL = "https://api.test.hotelbeds.com"
	DefaultHistoryTurns = 25
	DefaultDedupWindow  = 120 * time.Second
)

// Config is the full runtime configuration shared by all entrypoints.
type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	TemporalHost string
	TaskQueue    string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	DuffelToken   string
	DuffelBaseURL string
	CardsBaseURL  string

	HotelbedsAPIKey  string
	HotelbedsSecret  string
	HotelbedsBaseURL string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// NotificationMode is one of "smtp", "temporal" or "log".
	NotificationMode string

	HistoryTurns     int
	DedupWindow      time.Duration
	ProviderRPS      float64
	AllowedOrigins   []string
	SessionIdleLimit time.Duration
}

type fileConfig struct {
	Server       fileServerConfig       `yaml:"server"`
	Database     fileDatabaseConfig     `yaml:"database"`
	Temporal     fileTemporalConfig     `yaml:"temporal"`
	OpenAI       fileOpenAIConfig       `yaml:"openai"`
	Duffel       fileDuffelConfig       `yaml:"duffel"`
	Hotelbeds    fileHotelbedsConfig    `yaml:"hotelbeds"`
	SMTP         fileSMTPConfig         `yaml:"smtp"`
	Notification fileNotificationConfig `yaml:"notification"`
	Assistant    fileAssistantConfig    `yaml:"assistant"`
}

type fileServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type fileDatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type fileTemporalConfig struct {
	Host      string `yaml:"host"`
	TaskQueue string `yaml:"task_queue"`
}

type fileOpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type fileDuffelConfig struct {
	Token        string  `yaml:"token"`
	BaseURL      string  `yaml:"base_url"`
	CardsBaseURL string  `yaml:"cards_base_url"`
	RPS          float64 `yaml:"requests_per_second"`
}

type fileHotelbedsConfig struct {
	APIKey  string `yaml:"api_key"`
	Secret  string `yaml:"secret"`
	BaseURL string `yaml:"base_url"`
}

type fileSMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
}

type fileNotificationConfig struct {
	Mode string `yaml:"mode"`
}

type fileAssistantConfig struct {
	HistoryTurns     int    `yaml:"history_turns"`
	DedupWindow      string `yaml:"dedup_window"`
	SessionIdleLimit string `yaml:"session_idle_limit"`
}

// Load reads the optional YAML file and overlays environment variables.
func Load() (*Config, error) {
	fc, err := loadFileConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:             getEnv("API_PORT", firstNonEmpty(fc.Server.Port, DefaultPort)),
		DBDriver:         getEnv("DB_DRIVER", firstNonEmpty(fc.Database.Driver, DefaultDBDriver)),
		DBDSN:            getEnv("DATABASE_URL", firstNonEmpty(fc.Database.DSN, DefaultDBDSN)),
		TemporalHost:     getEnv("TEMPORAL_HOST", firstNonEmpty(fc.Temporal.Host, DefaultTemporalHost)),
		TaskQueue:        getEnv("TEMPORAL_TASK_QUEUE", firstNonEmpty(fc.Temporal.TaskQueue, DefaultTaskQueue)),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", fc.OpenAI.APIKey),
		OpenAIModel:      getEnv("OPENAI_MODEL", firstNonEmpty(fc.OpenAI.Model, DefaultOpenAIModel)),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", fc.OpenAI.BaseURL),
		DuffelToken:      getEnv("DUFFEL_ACCESS_TOKEN", getEnv("DUFFEL_API_TOKEN", fc.Duffel.Token)),
		DuffelBaseURL:    getEnv("DUFFEL_BASE_URL", firstNonEmpty(fc.Duffel.BaseURL, DefaultDuffelURL)),
		CardsBaseURL:     getEnv("DUFFEL_CARDS_BASE_URL", firstNonEmpty(fc.Duffel.CardsBaseURL, DefaultCardsURL)),
		HotelbedsAPIKey:  getEnv("HOTELBEDS_API_KEY", fc.Hotelbeds.APIKey),
		HotelbedsSecret:  getEnv("HOTELBEDS_SECRET", fc.Hotelbeds.Secret),
		HotelbedsBaseURL: getEnv("HOTELBEDS_BASE_URL", firstNonEmpty(fc.Hotelbeds.BaseURL, DefaultHotelbedsURL)),
		SMTPHost:         getEnv("SMTP_HOST", fc.SMTP.Host),
		SMTPUser:         getEnv("SMTP_USER", fc.SMTP.User),
		SMTPPass:         getEnv("SMTP_PASS", fc.SMTP.Pass),
		SMTPFrom:         getEnv("SMTP_FROM", fc.SMTP.From),
		NotificationMode: strings.ToLower(getEnv("NOTIFICATION_MODE", fc.Notification.Mode)),
		ProviderRPS:      fc.Duffel.RPS,
		AllowedOrigins:   fc.Server.AllowedOrigins,
	}

	cfg.SMTPPort = fc.SMTP.Port
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", raw, err)
		}
		cfg.SMTPPort = port
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 587
	}
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}

	cfg.HistoryTurns = fc.Assistant.HistoryTurns
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = DefaultHistoryTurns
	}

	cfg.DedupWindow, err = parseDuration(getEnv("DEDUP_WINDOW", fc.Assistant.DedupWindow), DefaultDedupWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid dedup window: %w", err)
	}
	cfg.SessionIdleLimit, err = parseDuration(fc.Assistant.SessionIdleLimit, 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid session idle limit: %w", err)
	}

	if cfg.NotificationMode == "" {
		if cfg.SMTPHost != "" {
			cfg.NotificationMode = "smtp"
		} else {
			cfg.NotificationMode = "log"
		}
	}
	switch cfg.NotificationMode {
	case "smtp", "temporal", "log":
	default:
		return nil, fmt.Errorf("unsupported notification mode %q", cfg.NotificationMode)
	}

	return cfg, nil
}

func loadFileConfig() (fileConfig, error) {
	path := os.Getenv(EnvConfigFile)
	explicit := path != ""
	if !explicit {
		path = defaultConfigFileName
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
