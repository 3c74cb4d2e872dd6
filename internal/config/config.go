// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры,
// перед этим подхватывается необязательный .env (godotenv).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Хранилища, которые умеет собирать app.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Storage ---
	// memory — только для локальной разработки и демо, данные живут до рестарта
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// --- Database ---
	// Дефолт "postgres" — имя сервиса в docker-compose, для локалки DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"taskmarket"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"taskmarket"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Africa/Lagos"`

	// --- HTTP ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`

	// --- Auth ---
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
	JWTIssuer string        `envconfig:"JWT_ISSUER" default:"taskmarket"`

	// --- Admin ---
	// Учётка администратора создаётся (или повышается) при старте.
	// Хеш генерируется командой `taskmarket hash-password`.
	AdminEmail        string `envconfig:"ADMIN_EMAIL"`
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	// --- Ledger ---
	DepositServiceFee  int64    `envconfig:"LEDGER_DEPOSIT_FEE" default:"100"`
	ReferralBonus      int64    `envconfig:"LEDGER_REFERRAL_BONUS" default:"25"`
	MinPricePerUser    int64    `envconfig:"LEDGER_MIN_PRICE_PER_USER" default:"100"`
	PhoneDigits        int      `envconfig:"LEDGER_PHONE_DIGITS" default:"11"`
	WithdrawalNetworks []string `envconfig:"LEDGER_WITHDRAWAL_NETWORKS" default:"MTN,Airtel,Glo,9mobile"`
	PageSize           int      `envconfig:"LEDGER_PAGE_SIZE" default:"10"`
	MinPasswordLength  int      `envconfig:"LEDGER_MIN_PASSWORD_LENGTH" default:"6"`

	// --- Feature Flags ---
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	DigestEnabled  bool   `envconfig:"DIGEST_ENABLED" default:"true"`
	DigestSchedule string `envconfig:"DIGEST_SCHEDULE" default:"0 * * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// NetworkAllowed проверяет оператора для вывода (без учёта регистра).
func (c *Config) NetworkAllowed(network string) (string, bool) {
	for _, n := range c.WithdrawalNetworks {
		if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(network)) {
			return n, true
		}
	}
	return "", false
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StoragePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD не задан")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET должен быть не короче 16 символов")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL должен быть > 0")
	}
	if (c.AdminEmail == "") != (c.AdminPasswordHash == "") {
		return fmt.Errorf("ADMIN_EMAIL и ADMIN_PASSWORD_HASH задаются только вместе")
	}
	if c.DepositServiceFee < 0 {
		return fmt.Errorf("LEDGER_DEPOSIT_FEE не может быть отрицательным")
	}
	if c.ReferralBonus <= 0 {
		return fmt.Errorf("LEDGER_REFERRAL_BONUS должен быть > 0")
	}
	if c.MinPricePerUser <= 0 {
		return fmt.Errorf("LEDGER_MIN_PRICE_PER_USER должен быть > 0")
	}
	if c.PhoneDigits <= 0 {
		return fmt.Errorf("LEDGER_PHONE_DIGITS должен быть > 0")
	}
	if len(c.WithdrawalNetworks) == 0 {
		return fmt.Errorf("LEDGER_WITHDRAWAL_NETWORKS пуст")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("LEDGER_PAGE_SIZE должен быть > 0")
	}
	if c.MinPasswordLength <= 0 {
		return fmt.Errorf("LEDGER_MIN_PASSWORD_LENGTH должен быть > 0")
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения, заполняет Config.
func Load() (*Config, error) {
	// .env необязателен: в docker всё приходит через окружение
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("не удалось прочитать .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
