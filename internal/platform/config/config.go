package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config agrupa toda la configuración del proceso. Cada campo tiene un
// default de desarrollo; FromEnv nunca falla, acumula warnings.
type Config struct {
	Addr      string
	AppName   string
	LogLevel  string
	LogFormat string
	Location  *time.Location

	Auth     Auth
	Mongo    Mongo
	Postgres Postgres
	Redis    Redis
	Events   Events
	Mail     Mail
	Blob     Blob

	AnalyticsCacheTTL   time.Duration
	TicketIDMaxAttempts int
	FeedingInterval     time.Duration

	warnings []string
}

type Auth struct {
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration
	// DevMode acepta X-Debug-User-ID / X-Debug-Role en lugar de JWT.
	DevMode       bool
	AdminEmail    string
	AdminPassword string
}

type Mongo struct {
	URI      string
	Database string
}

type Postgres struct {
	DSN string
}

type Redis struct {
	URL string
}

type Events struct {
	Driver       string // none|nats|kafka
	NATSURL      string
	KafkaBrokers []string
}

type Mail struct {
	BaseURL string
	APIKey  string
	From    string
}

type Blob struct {
	Driver          string // memory|s3
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

const devJWTSecret = "dev-secret-change-me"

// FromEnv construye Config desde variables de entorno.
func FromEnv() Config {
	c := Config{}

	c.Addr = ":" + envOr("PORT", "8080")
	c.AppName = envOr("APP_NAME", "zoo-management")
	c.LogLevel = envOr("LOG_LEVEL", "info")
	c.LogFormat = envOr("LOG_FORMAT", "text")

	c.Location = time.Local
	if tz := strings.TrimSpace(os.Getenv("ZOO_TIMEZONE")); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			c.warn("ZOO_TIMEZONE %q invalid, using local time", tz)
		} else {
			c.Location = loc
		}
	}

	c.Auth = Auth{
		JWTSecret:     envOr("JWT_SECRET", devJWTSecret),
		JWTIssuer:     envOr("JWT_ISSUER", "zoo-management"),
		JWTTTL:        c.duration("JWT_TTL", 24*time.Hour),
		DevMode:       c.boolean("AUTH_DEV_MODE", false),
		AdminEmail:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
	if c.Auth.JWTSecret == devJWTSecret && c.Auth.DevMode {
		c.warn("JWT_SECRET not set, using development secret")
	}

	c.Mongo = Mongo{
		URI:      strings.TrimSpace(os.Getenv("MONGO_URI")),
		Database: envOr("MONGO_DB", "zoo"),
	}
	c.Postgres = Postgres{DSN: strings.TrimSpace(os.Getenv("DB_DSN"))}
	c.Redis = Redis{URL: strings.TrimSpace(os.Getenv("REDIS_URL"))}

	c.Events = Events{
		Driver:       strings.ToLower(envOr("EVENTS_DRIVER", "none")),
		NATSURL:      envOr("NATS_URL", "nats://localhost:4222"),
		KafkaBrokers: splitCSV(os.Getenv("KAFKA_BROKERS")),
	}

	c.Mail = Mail{
		BaseURL: strings.TrimSpace(os.Getenv("MAIL_BASE_URL")),
		APIKey:  os.Getenv("MAIL_API_KEY"),
		From:    envOr("MAIL_FROM", "no-reply@zoo.local"),
	}

	c.Blob = Blob{
		Driver:          strings.ToLower(envOr("BLOB_DRIVER", "memory")),
		Bucket:          os.Getenv("S3_BUCKET"),
		Region:          envOr("S3_REGION", "us-east-1"),
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		PathStyle:       c.boolean("S3_PATH_STYLE", false),
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	c.AnalyticsCacheTTL = c.duration("ANALYTICS_CACHE_TTL", 5*time.Minute)
	c.TicketIDMaxAttempts = c.integer("TICKET_ID_MAX_ATTEMPTS", 5)
	c.FeedingInterval = c.duration("FEEDING_INTERVAL", 24*time.Hour)

	return c
}

// ErrInsecureSecret indica que fuera de AUTH_DEV_MODE no se configuró
// JWT_SECRET.
var ErrInsecureSecret = errors.New("config: JWT_SECRET is required when AUTH_DEV_MODE is off")

// Validate rechaza configuraciones con las que el proceso no debe arrancar.
func (c Config) Validate() error {
	if !c.Auth.DevMode && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == devJWTSecret) {
		return ErrInsecureSecret
	}
	return nil
}

// Warnings lista valores inválidos que se reemplazaron por defaults.
func (c Config) Warnings() []string {
	return append([]string(nil), c.warnings...)
}

func (c *Config) warn(format string, args ...any) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

func (c *Config) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		c.warn("%s=%q invalid, using %s", key, v, def)
		return def
	}
	return d
}

func (c *Config) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.warn("%s=%q invalid, using %d", key, v, def)
		return def
	}
	return n
}

func (c *Config) boolean(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		c.warn("%s=%q invalid, using %t", key, v, def)
		return def
	}
	return b
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func splitCSV(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
