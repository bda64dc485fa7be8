package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	CORSOrigin  string
	AppURL      string
	LogLevel    string
	LogFormat   string
	DB          DBConfig
	Auth        AuthConfig
	Stripe      StripeConfig
	Google      GoogleConfig
	RateLimit   RateLimitConfig
	ShutdownTTL time.Duration

	// TrustedProxies lists the proxy IPs/CIDRs whose X-Forwarded-For is honoured.
	// Empty means the peer address is always the client.
	TrustedProxies []string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver string
	URL    string
}

type AuthConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	BcryptCost   int
	CookieSecure bool
}

type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	PremiumPriceID string
	ProPriceID     string
}

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
}

// Enabled reports whether Google sign-in routes should be mounted.
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads .env (when present) and the process environment.
// Missing required keys are reported together so a misconfigured deploy fails once.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var missing []string
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("APP_ENV", "development"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
		AppURL:     strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			URL:    getEnv("DB_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:    must("JWT_SECRET"),
			SessionTTL:   getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
			BcryptCost:   getEnvAsInt("BCRYPT_COST", 12),
			CookieSecure: getEnvAsBool("COOKIE_SECURE", false),
		},
		Stripe: StripeConfig{
			SecretKey:      must("STRIPE_SECRET_KEY"),
			WebhookSecret:  must("STRIPE_WEBHOOK_SECRET"),
			PremiumPriceID: getEnv("STRIPE_PREMIUM_PRICE_ID", ""),
			ProPriceID:     getEnv("STRIPE_PRO_PRICE_ID", ""),
		},
		Google: GoogleConfig{
			ClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:      getEnv("GOOGLE_REDIRECT_URL", ""),
			FrontendRedirect: getEnv("GOOGLE_FRONTEND_REDIRECT", ""),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("AUTH_RATE_LIMIT_RPS", 5),
			Burst: getEnvAsInt("AUTH_RATE_LIMIT_BURST", 10),
		},
		ShutdownTTL:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
	}

	switch cfg.DB.Driver {
	case DriverPostgres:
		if cfg.DB.URL == "" {
			missing = append(missing, "DB_URL")
		}
	case DriverSQLite:
		if cfg.DB.URL == "" {
			cfg.DB.URL = "movie-app.db"
		}
	default:
		return nil, fmt.Errorf("config: unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// IsProduction gates gin release mode and secure cookies.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
