package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mailsift/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// SanitizerConfig sizes the list sanitization pipeline.
type SanitizerConfig struct {
	MaxWorkers int           `json:"max_workers"`
	MXTimeout  time.Duration `json:"mx_timeout"`
	MXRetries  int           `json:"mx_retries"`
	MXBackoff  time.Duration `json:"mx_backoff"`
	MXCacheTTL time.Duration `json:"mx_cache_ttl"`
}

// BounceConfig points at the IMAP mailbox that receives delivery reports.
type BounceConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Username     string        `json:"username"`
	Password     string        `json:"-"`
	Encryption   string        `json:"encryption"` // SSL, STARTTLS or plain
	PollInterval time.Duration `json:"poll_interval"`
}

type Config struct {
	Environment string `json:"environment"`
	ServerPort  string `json:"server_port"`

	DBHost         string `json:"db_host"`
	DBPort         string `json:"db_port"`
	DBUser         string `json:"db_user"`
	DBPassword     string `json:"-"`
	DBName         string `json:"db_name"`
	DBSSLMode      string `json:"db_ssl_mode"`
	DBMaxIdleConns int    `json:"db_max_idle_conns"`
	DBMaxOpenConns int    `json:"db_max_open_conns"`

	// SES SMTP interface credentials for outbound mail
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"-"`
	FromEmail    string `json:"from_email"`
	FromName     string `json:"from_name"`

	TrackingBaseURL string   `json:"tracking_base_url"`
	TrackingSecret  string   `json:"-"`
	AllowedOrigins  []string `json:"allowed_origins"`

	SentryDSN string `json:"-"`

	RateLimitSanitize int `json:"rate_limit_sanitize"` // requests per minute per client

	Redis     RedisConfig     `json:"redis"`
	Sanitizer SanitizerConfig `json:"sanitizer"`
	Bounce    BounceConfig    `json:"bounce"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "5000"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "mailsift"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		SMTPHost:     getEnv("SMTP_HOST", "email-smtp.us-east-1.amazonaws.com"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", ""),
		FromName:     getEnv("FROM_NAME", ""),

		TrackingBaseURL: getEnv("TRACKING_BASE_URL", "http://localhost:5000"),
		TrackingSecret:  getEnv("TRACKING_SECRET", ""),
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		RateLimitSanitize: getEnvAsInt("RATE_LIMIT_SANITIZE", 30),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ADDRESS", "") != "",
			Address:  getEnv("REDIS_ADDRESS", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		Sanitizer: SanitizerConfig{
			MaxWorkers: getEnvAsInt("SANITIZER_MAX_WORKERS", 25),
			MXTimeout:  getEnvAsDuration("SANITIZER_MX_TIMEOUT", 5*time.Second),
			MXRetries:  getEnvAsInt("SANITIZER_MX_RETRIES", 2),
			MXBackoff:  getEnvAsDuration("SANITIZER_MX_BACKOFF", 300*time.Millisecond),
			MXCacheTTL: getEnvAsDuration("SANITIZER_MX_CACHE_TTL", 10*time.Minute),
		},

		Bounce: BounceConfig{
			Host:         getEnv("BOUNCE_IMAP_HOST", ""),
			Port:         getEnvAsInt("BOUNCE_IMAP_PORT", 993),
			Username:     getEnv("BOUNCE_IMAP_USERNAME", ""),
			Password:     getEnv("BOUNCE_IMAP_PASSWORD", ""),
			Encryption:   getEnv("BOUNCE_IMAP_ENCRYPTION", "SSL"),
			PollInterval: getEnvAsDuration("BOUNCE_POLL_INTERVAL", 5*time.Minute),
		},
	}

	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}

	if AppConfig.TrackingSecret == "" {
		// Tracking links signed with an ephemeral secret stop verifying
		// after a restart.
		AppConfig.TrackingSecret = uuid.NewString()
		log.Println("⚠️ TRACKING_SECRET not set, using an ephemeral secret")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("⚠️ Invalid duration for %s: %q, using %s", key, valueStr, fallback)
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Sanitizer: %d workers, %d MX retries, %s backoff",
		AppConfig.Sanitizer.MaxWorkers,
		AppConfig.Sanitizer.MXRetries,
		AppConfig.Sanitizer.MXBackoff)
	log.Printf("Bounce mailbox: enabled(%t)", AppConfig.Bounce.Host != "")
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Template{},
		&models.RecipientList{},
		&models.Recipient{},
		&models.Campaign{},
		&models.CampaignEvent{},
		&models.SanitizationJob{},
		&models.SanitizationEntry{},
		&models.Bounce{},
		&models.Suppression{},
		&models.Setting{},
	)
}
