package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Reports   ReportsConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
}

// ServerConfig contém configurações do servidor HTTP
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	TLS            bool
	CertFile       string
	KeyFile        string
	AllowedOrigins []string
}

// DatabaseConfig contém configurações do banco de dados
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
	SlowThreshold   time.Duration
	MigrationDir    string
	SkipMigrations  bool
	SeedFile        string
}

// RedisOptions contém configurações específicas para Redis
type RedisOptions struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
	PoolTimeout  time.Duration
}

// CacheConfig contém configurações do cache
type CacheConfig struct {
	Enabled         bool
	Type            string // redis, memory
	TTL             time.Duration
	CleanupInterval time.Duration
	Redis           RedisOptions
}

// AuthConfig contém configurações de autenticação
type AuthConfig struct {
	JWTSecret       string
	TokenExpiration time.Duration
}

// RateLimitConfig limita as rotas públicas de autenticação
type RateLimitConfig struct {
	Enabled           bool
	Backend           string // redis, memory
	RequestsPerMinute int
	BurstFactor       float64
}

// ReportsConfig contém configurações dos relatórios
type ReportsConfig struct {
	Timezone string
	CacheTTL time.Duration
}

// MetricsConfig contém configurações de métricas
type MetricsConfig struct {
	Enabled        bool
	PrometheusPath string
}

// LoggingConfig contém configurações de logging
type LoggingConfig struct {
	Level      string
	Format     string // json, console
	OutputPath string // stdout, file path
	ErrorPath  string
	Production bool
}

// TracingConfig contém configurações de rastreamento
type TracingConfig struct {
	Enabled       bool
	Endpoint      string
	ServiceName   string
	SamplingRatio float64
}

// LoadConfig carrega a configuração de diversas fontes (arquivos, env, defaults)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ativix")

	if err := v.ReadInConfig(); err != nil {
		// Ignorar se o arquivo não for encontrado
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("erro ao ler arquivo de configuração: %w", err)
		}
	}

	// Variáveis de ambiente com prefixo ATIVIX_ (ex.: ATIVIX_AUTH_JWTSECRET)
	v.SetEnvPrefix("ATIVIX")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("erro ao mapear configuração: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default retorna a configuração padrão sem ler arquivos nem ambiente
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults define valores padrão para a configuração
func setDefaults(v *viper.Viper) {
	// Servidor
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.readTimeout", "5s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "30s")
	v.SetDefault("server.maxHeaderBytes", 1<<20) // 1 MB
	v.SetDefault("server.tls", false)
	v.SetDefault("server.allowedOrigins", []string{"*"})

	// Banco de dados
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./ativix.db")
	v.SetDefault("database.maxIdleConns", 10)
	v.SetDefault("database.maxOpenConns", 50)
	v.SetDefault("database.connMaxLifetime", "1h")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("database.slowThreshold", "200ms")
	v.SetDefault("database.migrationDir", "./migrations")

	// Redis
	v.SetDefault("cache.redis.address", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.poolSize", 10)
	v.SetDefault("cache.redis.minIdleConns", 2)
	v.SetDefault("cache.redis.maxRetries", 3)
	v.SetDefault("cache.redis.readTimeout", "3s")
	v.SetDefault("cache.redis.writeTimeout", "3s")
	v.SetDefault("cache.redis.dialTimeout", "5s")
	v.SetDefault("cache.redis.poolTimeout", "4s")

	// Cache
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanupInterval", "10m")

	// Autenticação
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenExpiration", "24h")

	// Rate limit das rotas públicas
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.backend", "memory")
	v.SetDefault("rateLimit.requestsPerMinute", 30)
	v.SetDefault("rateLimit.burstFactor", 1.0)

	// Relatórios
	v.SetDefault("reports.timezone", "America/Sao_Paulo")
	v.SetDefault("reports.cacheTTL", "2m")

	// Métricas
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.prometheusPath", "/metrics")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
	v.SetDefault("logging.errorPath", "stderr")
	v.SetDefault("logging.production", true)

	// Tracing
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.samplingRatio", 0.1) // 10% das requisições
	v.SetDefault("tracing.serviceName", "ativix")
}

// validateConfig valida a configuração
func validateConfig(config *Config) error {
	if config.Auth.JWTSecret == "" {
		fmt.Println("AVISO: auth.jwtSecret não está definido. Use ATIVIX_AUTH_JWTSECRET ou JWT_SECRET.")
	}

	if config.Server.TLS {
		if config.Server.CertFile == "" || config.Server.KeyFile == "" {
			return fmt.Errorf("TLS habilitado, mas CertFile ou KeyFile não estão definidos")
		}
	}

	validDrivers := map[string]bool{"sqlite": true, "mysql": true, "postgres": true}
	if !validDrivers[config.Database.Driver] {
		return fmt.Errorf("driver de banco de dados inválido: %s", config.Database.Driver)
	}

	if config.Cache.Enabled {
		validTypes := map[string]bool{"memory": true, "redis": true}
		if !validTypes[config.Cache.Type] {
			return fmt.Errorf("tipo de cache inválido: %s", config.Cache.Type)
		}

		if config.Cache.Type == "redis" && config.Cache.Redis.Address == "" {
			return fmt.Errorf("tipo de cache redis requer um endereço")
		}
	}

	if config.RateLimit.Enabled {
		validBackends := map[string]bool{"memory": true, "redis": true}
		if !validBackends[config.RateLimit.Backend] {
			return fmt.Errorf("backend de rate limit inválido: %s", config.RateLimit.Backend)
		}
		if config.RateLimit.RequestsPerMinute <= 0 {
			return fmt.Errorf("rateLimit.requestsPerMinute deve ser maior que zero")
		}
	}

	return nil
}
