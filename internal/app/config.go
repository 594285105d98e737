package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/lms-backend/internal/data/db"
	"github.com/yungbote/lms-backend/internal/platform/envutil"
)

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

type Config struct {
	Port      string
	AppEnv    string
	LogMode   string
	ClientURL string

	DB db.Config

	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	BcryptCost       int

	Google        OAuthProviderConfig
	GitHub        OAuthProviderConfig
	SessionSecret string
	OAuthStateTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OtelEnabled     bool
	OtelServiceName string
	OtelEndpoint    string
	OtelInsecure    bool
	OtelSampleRatio float64

	ShutdownTimeout time.Duration
}

func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// LoadConfig reads the environment. Call envutil.LoadDotenv first to pick up
// a local .env file.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:      envutil.String("PORT", "5001"),
		AppEnv:    envutil.String("APP_ENV", "development"),
		LogMode:   envutil.String("LOG_MODE", "dev"),
		ClientURL: envutil.String("CLIENT_URL", "http://localhost:5173"),

		JWTSecret:        envutil.String("JWT_SECRET", ""),
		JWTRefreshSecret: envutil.String("JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:   envutil.Duration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:  envutil.Duration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:       envutil.Int("BCRYPT_COST", bcrypt.DefaultCost),

		Google: OAuthProviderConfig{
			ClientID:     envutil.String("GOOGLE_CLIENT_ID", ""),
			ClientSecret: envutil.String("GOOGLE_CLIENT_SECRET", ""),
			CallbackURL:  envutil.String("GOOGLE_CALLBACK_URL", ""),
		},
		GitHub: OAuthProviderConfig{
			ClientID:     envutil.String("GITHUB_CLIENT_ID", ""),
			ClientSecret: envutil.String("GITHUB_CLIENT_SECRET", ""),
			CallbackURL:  envutil.String("GITHUB_CALLBACK_URL", ""),
		},
		SessionSecret: envutil.String("SESSION_SECRET", ""),
		OAuthStateTTL: envutil.Duration("OAUTH_STATE_TTL", 10*time.Minute),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),

		OtelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OtelServiceName: envutil.String("OTEL_SERVICE_NAME", "lms"),
		OtelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OtelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OtelSampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),

		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
	cfg.DB = dbConfig(cfg.Production())

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET are required")
	}
	if cfg.JWTSecret == cfg.JWTRefreshSecret {
		return cfg, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.JWTRefreshSecret
	}
	return cfg, nil
}

// dbConfig picks the DSN variant for the environment: the docker URL in
// production, the local URL otherwise.
func dbConfig(production bool) db.Config {
	driver := strings.ToLower(envutil.String("DB_DRIVER", db.DriverPostgres))
	if driver == db.DriverSQLite {
		return db.Config{Driver: driver, DSN: envutil.String("SQLITE_PATH", "lms.db")}
	}
	local := envutil.String("DATABASE_URL_LOCAL", "")
	docker := envutil.String("DATABASE_URL_DOCKER", "")
	dsn := local
	if production && docker != "" {
		dsn = docker
	}
	if dsn == "" {
		dsn = docker
	}
	return db.Config{Driver: driver, DSN: dsn}
}
