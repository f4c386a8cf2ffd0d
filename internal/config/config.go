// Package config собирает настройки приложения из .env-файла,
// переменных окружения и флагов командной строки.
// Приоритет: переменные окружения, затем флаги, затем значения по умолчанию
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит настройки приложения
type Config struct {
	RunAddr       string
	GRPCAddr      string
	BaseURL       string
	DatabaseDSN   string
	JWTSecret     string
	CookieTTL     time.Duration
	TrustedSubnet string

	SMTPHost    string
	SMTPPort    int
	SMTPFrom    string
	SMTPSecret  string
	NotifyEmail string
}

// NewConfig создаёт и возвращает новый объект Config с настройками по умолчанию,
// парсит флаги командной строки и переменные окружения
func NewConfig() (*Config, error) {
	// .env необязателен, его отсутствие не ошибка
	_ = godotenv.Load()

	cfg := &Config{
		RunAddr:   ":8080",
		GRPCAddr:  ":3200",
		BaseURL:   "http://localhost:8080",
		JWTSecret: "default_jwt_secret",
		CookieTTL: 24 * time.Hour,
		SMTPPort:  465,
	}

	flagRunAddr := flag.String("a", ":8080", "address and port to run HTTP server")
	flagGRPCAddr := flag.String("g", ":3200", "address and port to run gRPC server")
	flagBaseURL := flag.String("b", "http://localhost:8080", "base URL for shortened links")
	flagDatabaseDSN := flag.String("d", "", "database DSN for PostgreSQL")
	flagJWTSecret := flag.String("j", "default_jwt_secret", "JWT secret key")
	flagTrustedSubnet := flag.String("t", "", "trusted subnet in CIDR notation for internal stats")
	flag.Parse()

	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.RunAddr = addr
	} else if *flagRunAddr != "" {
		cfg.RunAddr = *flagRunAddr
	}

	if addr := os.Getenv("GRPC_ADDRESS"); addr != "" {
		cfg.GRPCAddr = addr
	} else if *flagGRPCAddr != "" {
		cfg.GRPCAddr = *flagGRPCAddr
	}

	if url := os.Getenv("BASE_URL"); url != "" {
		cfg.BaseURL = url
	} else if *flagBaseURL != "" {
		cfg.BaseURL = *flagBaseURL
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	} else if *flagDatabaseDSN != "" {
		cfg.DatabaseDSN = *flagDatabaseDSN
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	} else if *flagJWTSecret != "" {
		cfg.JWTSecret = *flagJWTSecret
	}

	if subnet := os.Getenv("TRUSTED_SUBNET"); subnet != "" {
		cfg.TrustedSubnet = subnet
	} else if *flagTrustedSubnet != "" {
		cfg.TrustedSubnet = *flagTrustedSubnet
	}

	if ttl := os.Getenv("COOKIE_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, err
		}
		cfg.CookieTTL = parsed
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	cfg.SMTPSecret = os.Getenv("SMTP_SECRET")
	cfg.NotifyEmail = os.Getenv("NOTIFY_EMAIL")
	if port := os.Getenv("SMTP_PORT"); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, err
		}
		cfg.SMTPPort = parsed
	}

	if !strings.Contains(cfg.RunAddr, ":") {
		cfg.RunAddr = ":" + cfg.RunAddr
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		cfg.BaseURL = "http://" + cfg.BaseURL
	}

	return cfg, nil
}
