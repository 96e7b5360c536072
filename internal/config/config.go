package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	CORSOrigins   []string
	LogLevel      string
	LogFormat     string

	SessionStore     string
	SessionTTL       time.Duration
	RedisURL         string
	CookieSecure     bool
	SessionSweepCron string

	OAuth     OAuthConfig
	Assistant AssistantConfig
	Documents DocumentsConfig

	CompanyCatalog string

	// TrustedProxies may set X-Forwarded-For; empty means the direct peer is always the client.
	TrustedProxies []netip.Prefix
}

// OAuthConfig configures the optional third-party login.
type OAuthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

// Enabled reports whether every key needed for the OAuth flow is set.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.AuthURL != "" && o.TokenURL != "" &&
		o.UserInfoURL != "" && o.RedirectURL != ""
}

// AssistantConfig configures GigBot.
type AssistantConfig struct {
	GeminiAPIKey   string
	Model          string
	MaxToolRounds  int
	RatePerMinute  int
	PremiumRateMul int
}

// Enabled reports whether an LLM key is configured.
func (a AssistantConfig) Enabled() bool {
	return a.GeminiAPIKey != ""
}

// DocumentsConfig configures vehicle document storage.
type DocumentsConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	Prefix       string
	MaxUploadMB  int
	UsePathStyle bool
}

// Enabled reports whether an S3 bucket is configured. Without one, documents are kept in memory.
func (d DocumentsConfig) Enabled() bool {
	return d.Bucket != ""
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:             fallback(os.Getenv("PORT"), "8080"),
		StorageDriver:    strings.ToLower(fallback(os.Getenv("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:        strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:        fallback(os.Getenv("JWT_ISSUER"), "gigdash"),
		JWTTTL:           minutes(os.Getenv("JWT_TTL_MINUTES"), 60),
		CORSOrigins:      parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:         fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogFormat:        fallback(os.Getenv("LOG_FORMAT"), "json"),
		SessionTTL:       time.Duration(positiveInt(os.Getenv("SESSION_TTL_HOURS"), 168)) * time.Hour,
		RedisURL:         strings.TrimSpace(os.Getenv("REDIS_URL")),
		CookieSecure:     boolean(os.Getenv("COOKIE_SECURE"), false),
		SessionSweepCron: fallback(os.Getenv("SESSION_SWEEP_CRON"), "@every 15m"),
		OAuth: OAuthConfig{
			Provider:     fallback(os.Getenv("OAUTH_PROVIDER"), "oidc"),
			ClientID:     strings.TrimSpace(os.Getenv("OAUTH_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("OAUTH_CLIENT_SECRET")),
			AuthURL:      strings.TrimSpace(os.Getenv("OAUTH_AUTH_URL")),
			TokenURL:     strings.TrimSpace(os.Getenv("OAUTH_TOKEN_URL")),
			UserInfoURL:  strings.TrimSpace(os.Getenv("OAUTH_USERINFO_URL")),
			RedirectURL:  strings.TrimSpace(os.Getenv("OAUTH_REDIRECT_URL")),
			Scopes:       parseCSV(fallback(os.Getenv("OAUTH_SCOPES"), "openid,email,profile")),
		},
		Assistant: AssistantConfig{
			GeminiAPIKey:   strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:          fallback(os.Getenv("GEMINI_MODEL"), "gemini-2.5-flash"),
			MaxToolRounds:  positiveInt(os.Getenv("ASSISTANT_MAX_TOOL_ROUNDS"), 5),
			RatePerMinute:  positiveInt(os.Getenv("ASSISTANT_RATE_PER_MINUTE"), 20),
			PremiumRateMul: positiveInt(os.Getenv("ASSISTANT_PREMIUM_MULTIPLIER"), 3),
		},
		Documents: DocumentsConfig{
			Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
			Region:       fallback(os.Getenv("S3_REGION"), "us-east-1"),
			Endpoint:     strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
			Prefix:       strings.TrimSpace(os.Getenv("S3_PREFIX")),
			MaxUploadMB:  positiveInt(os.Getenv("MAX_UPLOAD_MB"), 10),
			UsePathStyle: boolean(os.Getenv("S3_PATH_STYLE"), false),
		},
		CompanyCatalog: strings.TrimSpace(os.Getenv("COMPANY_CATALOG")),
	}
	proxies, err := parsePrefixes(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return Config{}, err
	}
	cfg.TrustedProxies = proxies

	defaultSessions := cfg.StorageDriver
	cfg.SessionStore = strings.ToLower(fallback(os.Getenv("SESSION_STORE"), defaultSessions))

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	switch cfg.SessionStore {
	case DriverPostgres, DriverMemory:
		if cfg.SessionStore != cfg.StorageDriver {
			return Config{}, fmt.Errorf("SESSION_STORE %q requires STORAGE_DRIVER %q", cfg.SessionStore, cfg.SessionStore)
		}
	case DriverRedis:
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return Config{}, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// MaxUploadBytes returns the upload limit for vehicle documents.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.Documents.MaxUploadMB) << 20
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// parsePrefixes accepts CIDRs or bare addresses, comma separated.
func parsePrefixes(input string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", part, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", part, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

func positiveInt(value string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return n
	}
	return def
}

func minutes(value string, def int) time.Duration {
	return time.Duration(positiveInt(value, def)) * time.Minute
}

func boolean(value string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
		return b
	}
	return def
}
