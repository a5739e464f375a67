package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Wetende/crossview-sub004/internal/service/assessment"
)

// Config хранит все настройки приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Assessment AssessmentConfig
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
	// AllowedOrigins: список источников для CORS; пустой список — только localhost
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	// LogLevel: уровень логирования SQL ("silent", "error", "warn", "info"). По умолчанию "warn".
	LogLevel     string `mapstructure:"log_level"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' допустим ровно один адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	// KeyPrefix: общий префикс ключей сервиса
	KeyPrefix string `mapstructure:"key_prefix"`
}

// JWTConfig содержит настройки проверки токенов, выданных сервисом идентификации
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// AssessmentConfig содержит настройки движка оценки
type AssessmentConfig struct {
	RetakePenaltyMode       string `mapstructure:"retake_penalty_mode"`
	QuestionOrderTTLMinutes int    `mapstructure:"question_order_ttl_minutes"`
	QuizCacheTTLSeconds     int    `mapstructure:"quiz_cache_ttl_seconds"`
	TimeLimitGraceSeconds   int    `mapstructure:"time_limit_grace_seconds"`
	// TokenSecret: ключ токенов ответов на сопоставление; пустой заменяется секретом JWT
	TokenSecret string `mapstructure:"token_secret"`
}

// RateLimitConfig содержит лимиты запросов
type RateLimitConfig struct {
	SubmitPerMinute int `mapstructure:"submit_per_minute"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// EngineConfig переводит секцию assessment в настройки движка
func (a AssessmentConfig) EngineConfig() (*assessment.Config, error) {
	mode, err := assessment.ParsePenaltyMode(a.RetakePenaltyMode)
	if err != nil {
		return nil, err
	}
	cfg := assessment.DefaultConfig()
	cfg.PenaltyMode = mode
	cfg.QuestionOrderTTL = time.Duration(a.QuestionOrderTTLMinutes) * time.Minute
	cfg.QuizCacheTTL = time.Duration(a.QuizCacheTTLSeconds) * time.Second
	cfg.TimeLimitGrace = time.Duration(a.TimeLimitGraceSeconds) * time.Second
	if a.TokenSecret != "" {
		cfg.TokenSecret = []byte(a.TokenSecret)
	}
	return cfg, nil
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.log_level", "warn")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.key_prefix", "assess")

	vip.SetDefault("assessment.retake_penalty_mode", string(assessment.PenaltyLinear))
	vip.SetDefault("assessment.question_order_ttl_minutes", 24*60)
	vip.SetDefault("assessment.quiz_cache_ttl_seconds", 0)
	vip.SetDefault("assessment.time_limit_grace_seconds", 0)

	vip.SetDefault("rate_limit.submit_per_minute", 120)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр, без глобального состояния

	setDefaults(vip)

	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.issuer", "JWT_ISSUER")

	// Привязка для движка оценки
	vip.BindEnv("assessment.retake_penalty_mode", "ASSESSMENT_RETAKE_PENALTY_MODE")
	vip.BindEnv("assessment.quiz_cache_ttl_seconds", "ASSESSMENT_QUIZ_CACHE_TTL_SECONDS")
	vip.BindEnv("assessment.token_secret", "ASSESSMENT_TOKEN_SECRET")

	vip.BindEnv("server.port", "SERVER_PORT")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файл не обязателен: все обязательные значения можно передать через env
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// REDIS_ADDRS приходит одной строкой через запятую
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}
	if cfg.Assessment.TokenSecret == "" {
		cfg.Assessment.TokenSecret = cfg.JWT.Secret
	}

	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Database Log Level: %s", cfg.Database.LogLevel)
		log.Printf("Redis Mode: %s, Addrs: %v, Addr: %s", cfg.Redis.Mode, cfg.Redis.Addrs, cfg.Redis.Addr)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Retake Penalty Mode: %s", cfg.Assessment.RetakePenaltyMode)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required in config (check JWT_SECRET env var)")
	}
	if _, err := assessment.ParsePenaltyMode(c.Assessment.RetakePenaltyMode); err != nil {
		return err
	}
	if c.Assessment.QuestionOrderTTLMinutes < 0 || c.Assessment.QuizCacheTTLSeconds < 0 || c.Assessment.TimeLimitGraceSeconds < 0 {
		return fmt.Errorf("assessment TTL and grace values must not be negative")
	}
	if c.RateLimit.SubmitPerMinute < 0 {
		return fmt.Errorf("rate_limit.submit_per_minute must not be negative")
	}
	return nil
}
