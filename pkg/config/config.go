package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port        string
	StoreDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string

	WorkflowWorkers       int
	WorkflowQueueSize     int
	WorkflowActionTimeout time.Duration
	WebhookTimeout        time.Duration
	SchedulerEnabled      bool
}

// Defaults returns the configuration used when no variables are set.
func Defaults() Config {
	return Config{
		Port:                  "3001",
		StoreDriver:           StoreMySQL,
		DBHost:                "127.0.0.1",
		DBPort:                "3306",
		DBUser:                "root",
		DBName:                "leadpilot",
		WorkflowWorkers:       4,
		WorkflowQueueSize:     256,
		WorkflowActionTimeout: 30 * time.Second,
		WebhookTimeout:        30 * time.Second,
		SchedulerEnabled:      true,
	}
}

// envPaths are tried in order; the first .env found wins.
var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
	"../../../.env",
}

// LoadDotEnv loads the first .env file found walking up from the working
// directory. Variables already set in the process are not overridden.
func LoadDotEnv() {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				log.Printf("📁 Loaded .env from %s", p)
				return
			}
		}
	}
}

// Load reads .env (if any) and then the environment.
func Load() Config {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Invalid values keep their default.
func FromEnv(getenv func(string) string) Config {
	cfg := Defaults()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	positiveInt := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Printf("⚠️  Invalid %s=%q, using default %d", key, v, *dst)
			return
		}
		*dst = n
	}
	duration := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Printf("⚠️  Invalid %s=%q, using default %s", key, v, *dst)
			return
		}
		*dst = d
	}

	str("PORT", &cfg.Port)
	str("STORE_DRIVER", &cfg.StoreDriver)
	str("DB_HOST", &cfg.DBHost)
	str("DB_PORT", &cfg.DBPort)
	str("DB_USER", &cfg.DBUser)
	cfg.DBPassword = getenv("DB_PASSWORD")
	str("DB_NAME", &cfg.DBName)
	str("JWT_SECRET", &cfg.JWTSecret)

	positiveInt("WORKFLOW_WORKERS", &cfg.WorkflowWorkers)
	positiveInt("WORKFLOW_QUEUE_SIZE", &cfg.WorkflowQueueSize)
	duration("WORKFLOW_ACTION_TIMEOUT", &cfg.WorkflowActionTimeout)
	duration("WEBHOOK_TIMEOUT", &cfg.WebhookTimeout)

	if v := strings.TrimSpace(getenv("SCHEDULER_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("⚠️  Invalid SCHEDULER_ENABLED=%q, using default %t", v, cfg.SchedulerEnabled)
		} else {
			cfg.SchedulerEnabled = b
		}
	}

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	if cfg.StoreDriver != StoreMySQL && cfg.StoreDriver != StoreMemory {
		log.Printf("⚠️  Unknown STORE_DRIVER=%q, using %s", cfg.StoreDriver, StoreMySQL)
		cfg.StoreDriver = StoreMySQL
	}
	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET is not set, authenticated routes will reject every request")
	}

	return cfg
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}
