package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	SiteURL     string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisUsername string `env:"REDIS_USERNAME"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisUseTLS   bool   `env:"REDIS_USE_TLS" envDefault:"true"`

	// Supabase
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseJWTSecret  string `env:"SUPABASE_JWT_SECRET"`

	// fal.ai - 요청 시점에 검사 (없으면 500)
	FalKey           string        `env:"FAL_KEY"`
	FalImageEndpoint string        `env:"FAL_IMAGE_ENDPOINT" envDefault:"https://fal.run/fal-ai/flux-pro/v1.1-ultra"`
	FalQueueURL      string        `env:"FAL_QUEUE_URL" envDefault:"https://queue.fal.run"`
	FalPollInterval  time.Duration `env:"FAL_POLL_INTERVAL" envDefault:"1s"`

	// Google OAuth - 호출 시점에 검사
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	// YouTube Data API endpoint override (테스트용)
	YoutubeAPIEndpoint string `env:"YOUTUBE_API_ENDPOINT"`
}

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("redis", cfg.GetRedisAddr()).
		Bool("redis_tls", cfg.RedisUseTLS).
		Str("supabase", cfg.SupabaseURL).
		Bool("fal_configured", cfg.FalKey != "").
		Bool("google_configured", cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "").
		Msg("✅ Configuration loaded successfully")

	return cfg, nil
}

// Load reads .env (when present) and the environment without validation.
// CLI commands that need only part of the config use it directly.
func Load() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("⚠️  .env file not found, using environment variables")
	}
	return Parse()
}

// Parse reads the process environment into a Config without validation.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/")
	cfg.SupabaseURL = strings.TrimRight(strings.TrimSpace(cfg.SupabaseURL), "/")
	cfg.FalKey = strings.TrimSpace(cfg.FalKey)
	if cfg.FalPollInterval <= 0 {
		cfg.FalPollInterval = time.Second
	}

	return cfg, nil
}

// validate - 필수 환경변수 검증
// FAL_KEY, GOOGLE_* 는 요청 시점 설정 오류로 처리하므로 여기서 검사하지 않음
func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	return nil
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// YoutubeCallbackURL - OAuth redirect URI 기본값
func (c *Config) YoutubeCallbackURL() string {
	return c.SiteURL + "/api/youtube/callback"
}
