package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "MARKETPLACE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv  = "MARKETPLACE_APP_ENV"
	EnvDBDSN   = "MARKETPLACE_DB_DSN"
	EnvDBHost  = "MARKETPLACE_DB_HOST"
	EnvDBUser  = "MARKETPLACE_DB_USER"
	EnvDBName  = "MARKETPLACE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETPLACE_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETPLACE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARKETPLACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETPLACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETPLACE_DB_DSN"`
	Driver string `envconfig:"MARKETPLACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETPLACE_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETPLACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETPLACE_DB_USER"`
	LegacyPassword string `envconfig:"MARKETPLACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETPLACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETPLACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETPLACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETPLACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETPLACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETPLACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETPLACE_REDIS_URL"`
	Address      string        `envconfig:"MARKETPLACE_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETPLACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETPLACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETPLACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETPLACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETPLACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETPLACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETPLACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKETPLACE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETPLACE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETPLACE_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenDays  int    `envconfig:"MARKETPLACE_JWT_REFRESH_TOKEN_DAYS" default:"30"`
}

func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKETPLACE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKETPLACE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKETPLACE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKETPLACE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKETPLACE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MARKETPLACE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MARKETPLACE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MARKETPLACE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MARKETPLACE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MARKETPLACE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MARKETPLACE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETPLACE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
