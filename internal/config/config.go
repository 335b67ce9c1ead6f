package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var defaultRescoreScenarios = []string{
	"interest_rate_200bps",
	"revenue_down_20",
	"liquidity_freeze",
	"credit_spread_widening",
	"volatility_spike",
}

// Config holds application configuration
type Config struct {
	Port      string
	DBConn    string
	LogLevel  string
	JWTSecret string
	// AllowGuest scopes unauthenticated requests to GuestUserID
	AllowGuest  bool
	GuestUserID string

	CBRURL        string
	UseKeyRate    bool
	KeyRateMargin float64

	RenderURL string

	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SenderEmail     string
	AlertRecipients []string
	AlertThreshold  int

	RescoreSchedule  string
	RescoreScenarios []string

	VaRWorkers    int
	VaRSeed       *uint64
	StressTimeout time.Duration
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=stress sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		GuestUserID:     getEnv("GUEST_USER_ID", "00000000-0000-0000-0000-000000000001"),
		CBRURL:          getEnv("CBR_URL", "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"),
		RenderURL:       getEnv("RENDER_URL", ""),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "risk@localhost"),
		AlertRecipients: splitList(getEnv("ALERT_RECIPIENTS", "")),
		RescoreSchedule: getEnv("RESCORE_SCHEDULE", ""),
	}
	cfg.RescoreScenarios = splitList(getEnv("RESCORE_SCENARIOS", strings.Join(defaultRescoreScenarios, ",")))

	var err error
	if cfg.AllowGuest, err = parseBool("ALLOW_GUEST", "false"); err != nil {
		return nil, err
	}
	if cfg.UseKeyRate, err = parseBool("USE_KEY_RATE", "false"); err != nil {
		return nil, err
	}
	if cfg.KeyRateMargin, err = strconv.ParseFloat(getEnv("KEY_RATE_MARGIN", "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid KEY_RATE_MARGIN: %w", err)
	}
	if cfg.AlertThreshold, err = strconv.Atoi(getEnv("ALERT_THRESHOLD", "70")); err != nil {
		return nil, fmt.Errorf("invalid ALERT_THRESHOLD: %w", err)
	}
	if cfg.VaRWorkers, err = strconv.Atoi(getEnv("VAR_WORKERS", "1")); err != nil {
		return nil, fmt.Errorf("invalid VAR_WORKERS: %w", err)
	}
	if cfg.StressTimeout, err = time.ParseDuration(getEnv("STRESS_TIMEOUT", "10s")); err != nil {
		return nil, fmt.Errorf("invalid STRESS_TIMEOUT: %w", err)
	}
	if seed := getEnv("VAR_SEED", ""); seed != "" {
		v, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid VAR_SEED: %w", err)
		}
		cfg.VaRSeed = &v
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AlertThreshold < 0 || cfg.AlertThreshold > 100 {
		return nil, fmt.Errorf("ALERT_THRESHOLD must be between 0 and 100, got %d", cfg.AlertThreshold)
	}
	if cfg.VaRWorkers < 1 {
		return nil, fmt.Errorf("VAR_WORKERS must be at least 1, got %d", cfg.VaRWorkers)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func parseBool(key, defaultVal string) (bool, error) {
	v, err := strconv.ParseBool(getEnv(key, defaultVal))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
