package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (timezone, timeout, etc.), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CORS      CORSConfig
	Log       LogConfig
	Mail      MailConfig
	Scheduler SchedulerConfig
	Booking   BookingConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
	TimeZone string `envconfig:"DB_TIMEZONE" default:"UTC"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level          string `envconfig:"LOG_LEVEL" default:"info"`
	TimeZone       string `envconfig:"LOG_TIMEZONE" default:"UTC"`
	TimeFormat     string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
	TimeZoneOffset int    `envconfig:"LOG_TIMEZONE_OFFSET" default:"0"`
}

type MailConfig struct {
	Host       string        `envconfig:"MAIL_HOST" default:""`
	Port       string        `envconfig:"MAIL_PORT" default:"587"`
	From       string        `envconfig:"MAIL_FROM" default:"no-reply@bookline.local"`
	OwnerEmail string        `envconfig:"MAIL_OWNER_EMAIL" default:"owner@bookline.local"`
	Business   string        `envconfig:"MAIL_BUSINESS_NAME" default:"Bookline"`
	Timeout    time.Duration `envconfig:"MAIL_TIMEOUT" default:"10s"`
}

type SchedulerConfig struct {
	Interval     time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"30s"`
	BatchSize    int           `envconfig:"SCHEDULER_BATCH_SIZE" default:"50"`
	MaxAttempts  int32         `envconfig:"SCHEDULER_MAX_ATTEMPTS" default:"3"`
	RetryBackoff time.Duration `envconfig:"SCHEDULER_RETRY_BACKOFF" default:"5m"`
}

type BookingConfig struct {
	MinLeadTime time.Duration `envconfig:"BOOKING_MIN_LEAD_TIME" default:"0"`
	SlotStep    time.Duration `envconfig:"BOOKING_SLOT_STEP" default:"0"` // 0 = service duration
	EventBuffer int           `envconfig:"BOOKING_EVENT_BUFFER" default:"64"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&timezone=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.TimeZone,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Log: LogConfig{
			Level:          "error", // Error level only for tests
			TimeZone:       "UTC",
			TimeFormat:     "2006-01-02 15:04:05.000",
			TimeZoneOffset: 0,
		},
		Mail: MailConfig{
			From:       "no-reply@test.local",
			OwnerEmail: "owner@test.local",
			Timeout:    time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval:     time.Second,
			BatchSize:    50,
			MaxAttempts:  3,
			RetryBackoff: time.Minute,
		},
	}
}
