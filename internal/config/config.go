package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lathera/internal/soap"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	Auth       AuthConfig
	Calculator CalculatorConfig
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig selects the minimum log level.
type LoggingConfig struct {
	Level string
}

// AuthConfig holds browser session settings. Sessions carry the calculator
// draft; there are no user accounts.
type AuthConfig struct {
	Session SessionConfig
}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// CalculatorConfig holds the settings a fresh draft starts with.
type CalculatorConfig struct {
	Defaults soap.Settings
}

// Load inspects the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			":8080",
		),
		ReadTimeout:     parseDurationWithDefault(os.Getenv("SERVER_READ_TIMEOUT"), 15*time.Second),
		WriteTimeout:    parseDurationWithDefault(os.Getenv("SERVER_WRITE_TIMEOUT"), 15*time.Second),
		ShutdownTimeout: parseDurationWithDefault(os.Getenv("SERVER_SHUTDOWN_TIMEOUT"), 10*time.Second),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_IDLE_CONNS"), 5),
		MaxOpenConns:    parseIntWithDefault(os.Getenv("DATABASE_MAX_OPEN_CONNS"), 20),
		ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), time.Hour),
		ConnMaxIdleTime: parseDurationWithDefault(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), 15*time.Minute),
		UseMock:         parseBoolWithDefault(os.Getenv("DATABASE_USE_MOCK"), false),
	}

	cfg.Logging = LoggingConfig{
		Level: strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), "info")),
	}

	cfg.Auth = AuthConfig{
		Session: SessionConfig{
			Lifetime:     parseDurationWithDefault(os.Getenv("SESSION_LIFETIME"), 24*time.Hour),
			CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), "lathera_session"),
			CookieDomain: strings.TrimSpace(os.Getenv("SESSION_COOKIE_DOMAIN")),
			CookieSecure: parseBoolWithDefault(os.Getenv("SESSION_COOKIE_SECURE"), true),
		},
	}

	defaults, err := loadCalculatorDefaults()
	if err != nil {
		return Config{}, err
	}
	cfg.Calculator = CalculatorConfig{Defaults: defaults}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	return cfg, nil
}

func loadCalculatorDefaults() (soap.Settings, error) {
	settings := soap.DefaultSettings()

	if value := strings.TrimSpace(os.Getenv("CALC_DEFAULT_LYE_TYPE")); value != "" {
		lye, err := soap.ParseLyeType(value)
		if err != nil {
			return soap.Settings{}, fmt.Errorf("CALC_DEFAULT_LYE_TYPE: %w", err)
		}
		settings.LyeType = lye
	}
	if value := strings.TrimSpace(os.Getenv("CALC_DEFAULT_WATER_METHOD")); value != "" {
		method, err := soap.ParseWaterMethod(value)
		if err != nil {
			return soap.Settings{}, fmt.Errorf("CALC_DEFAULT_WATER_METHOD: %w", err)
		}
		settings.WaterMethod = method
	}
	if value := strings.TrimSpace(os.Getenv("CALC_DEFAULT_WEIGHT_UNIT")); value != "" {
		unit, err := soap.ParseWeightUnit(value)
		if err != nil {
			return soap.Settings{}, fmt.Errorf("CALC_DEFAULT_WEIGHT_UNIT: %w", err)
		}
		settings.WeightUnit = unit
	}

	settings.WaterValue = parseFloatWithDefault(os.Getenv("CALC_DEFAULT_WATER_VALUE"), settings.WaterValue)
	settings.SuperfatPercent = parseFloatWithDefault(os.Getenv("CALC_DEFAULT_SUPERFAT"), settings.SuperfatPercent)
	settings.FragranceRatio = parseFloatWithDefault(os.Getenv("CALC_DEFAULT_FRAGRANCE_RATIO"), settings.FragranceRatio)
	settings.TotalOilWeight = parseFloatWithDefault(os.Getenv("CALC_DEFAULT_TOTAL_OIL_WEIGHT"), settings.TotalOilWeight)
	settings.KOHPurity90 = parseBoolWithDefault(os.Getenv("CALC_DEFAULT_KOH_PURITY_90"), settings.KOHPurity90)

	if settings.SuperfatPercent < 0 || settings.SuperfatPercent > 100 {
		return soap.Settings{}, fmt.Errorf("CALC_DEFAULT_SUPERFAT must be between 0 and 100")
	}
	return settings, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseFloatWithDefault(value string, def float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}
