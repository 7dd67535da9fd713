package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/opsdesk/opsdesk-api/internal/secrets"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App           AppConfig
	Database      DatabaseConfig
	AzureAd       AzureAdConfig
	ApiKey        ApiKeyConfig
	Secrets       SecretsConfig
	Logging       LoggingConfig
	Server        ServerConfig
	CORS          CORSConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	Invoice       InvoiceConfig
	Notifications NotificationsConfig
	Events        EventsConfig
	Jobs          JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	AutoMigrate     bool
}

type AzureAdConfig struct {
	TenantId       string
	ClientId       string
	InstanceUrl    string
	RequiredScopes string
}

type ApiKeyConfig struct {
	Value string // Loaded from secrets or environment
}

type SecretsConfig struct {
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	EnableSwagger   bool
	EnableMetrics   bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins may contain "*" to allow any origin
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	ReferrerPolicy        string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled               bool
	RequestsPerMinute     int // per IP, unauthenticated
	RequestsPerMinuteAuth int // per user
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// InvoiceConfig controls invoices created from orders
type InvoiceConfig struct {
	// VATRate is a percentage; the default of 19 and the fixed currency ignore
	// the order's own currency
	VATRate      float64
	Currency     string
	DueDays      int
	NumberPrefix string
}

// NotificationsConfig controls the team notification fan-out
type NotificationsConfig struct {
	Async       bool
	Concurrency int
	Timeout     int // seconds
}

// EventsConfig controls forwarding of order events outside the process
type EventsConfig struct {
	Redis RedisEventsConfig
	Kafka KafkaEventsConfig
}

type RedisEventsConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Channel  string
}

type KafkaEventsConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	BatchTimeout int // milliseconds
}

// JobsConfig controls background jobs
type JobsConfig struct {
	PaymentReminderEnabled bool
	PaymentReminderCron    string
	Timeout                int // seconds
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// ShutdownTimeoutDuration returns the graceful shutdown timeout as duration
func (s *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// TimeoutDuration returns the fan-out timeout as duration
func (n *NotificationsConfig) TimeoutDuration() time.Duration {
	return time.Duration(n.Timeout) * time.Second
}

// BatchTimeoutDuration returns the Kafka writer batch timeout as duration
func (k *KafkaEventsConfig) BatchTimeoutDuration() time.Duration {
	return time.Duration(k.BatchTimeout) * time.Millisecond
}

// TimeoutDuration returns the job timeout as duration
func (j *JobsConfig) TimeoutDuration() time.Duration {
	return time.Duration(j.Timeout) * time.Second
}

// Load loads configuration from file and environment variables.
// It does not contact Key Vault; use LoadWithSecrets for that.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.ApiKey.Value == "" {
		cfg.ApiKey.Value = v.GetString("ADMIN_API_KEY")
	}
	if cfg.AzureAd.TenantId == "" {
		cfg.AzureAd.TenantId = v.GetString("AZURE_TENANT_ID")
	}
	if cfg.AzureAd.ClientId == "" {
		cfg.AzureAd.ClientId = v.GetString("AZURE_CLIENT_ID")
	}
	if cfg.AzureAd.RequiredScopes == "" {
		cfg.AzureAd.RequiredScopes = v.GetString("AZURE_REQUIRED_SCOPES")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}
	if brokers := v.GetString("KAFKA_BROKERS"); brokers != "" && len(cfg.Events.Kafka.Brokers) == 0 {
		cfg.Events.Kafka.Brokers = strings.Split(brokers, ",")
	}

	return &cfg, nil
}

// LoadWithSecrets loads configuration and, when USE_AZURE_KEY_VAULT=true in
// staging or production, resolves credentials from Azure Key Vault.
// Explicit environment variables still win over vault values.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)
	applySecrets(ctx, cfg, provider)

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// SecretSource resolves a named secret with an environment variable override
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

func applySecrets(ctx context.Context, cfg *Config, src SecretSource) {
	set := func(target *string, secretName, envName string) {
		if value, err := src.GetSecretOrEnv(ctx, secretName, envName); err == nil && value != "" {
			*target = value
		}
	}

	set(&cfg.Database.Host, "POSTGRES-HOST", "DATABASE_HOST")
	set(&cfg.Database.User, "POSTGRES-USER", "DATABASE_USER")
	set(&cfg.Database.Password, "POSTGRES-PASSWORD", "DATABASE_PASSWORD")
	set(&cfg.AzureAd.TenantId, "azure-tenant-id", "AZURE_TENANT_ID")
	set(&cfg.AzureAd.ClientId, "azure-client-id", "AZURE_CLIENT_ID")
	set(&cfg.ApiKey.Value, "admin-api-key", "ADMIN_API_KEY")
	if cfg.Events.Redis.Enabled {
		set(&cfg.Events.Redis.Password, "redis-password", "EVENTS_REDIS_PASSWORD")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "OpsDesk API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "opsdesk")
	v.SetDefault("database.user", "opsdesk")
	v.SetDefault("database.password", "opsdesk")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.autoMigrate", false)

	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("azuread.instanceUrl", "https://login.microsoftonline.com/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.shutdownTimeout", 30)
	v.SetDefault("server.enableSwagger", true)
	v.SetDefault("server.enableMetrics", true)

	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 300)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready", "/metrics"})

	v.SetDefault("invoice.vatRate", 19.0)
	v.SetDefault("invoice.currency", "EUR")
	v.SetDefault("invoice.dueDays", 30)
	v.SetDefault("invoice.numberPrefix", "INV")

	v.SetDefault("notifications.async", true)
	v.SetDefault("notifications.concurrency", 8)
	v.SetDefault("notifications.timeout", 30)

	v.SetDefault("events.redis.enabled", false)
	v.SetDefault("events.redis.addr", "localhost:6379")
	v.SetDefault("events.redis.password", "")
	v.SetDefault("events.redis.db", 0)
	v.SetDefault("events.redis.channel", "opsdesk.orders")
	v.SetDefault("events.kafka.enabled", false)
	v.SetDefault("events.kafka.brokers", []string{})
	v.SetDefault("events.kafka.topic", "opsdesk.orders")
	v.SetDefault("events.kafka.batchTimeout", 50)

	v.SetDefault("jobs.paymentReminderEnabled", true)
	v.SetDefault("jobs.paymentReminderCron", "0 */5 * * * *")
	v.SetDefault("jobs.timeout", 120)
}
