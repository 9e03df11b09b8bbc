package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	OTP           OTPConfig
	Checkout      CheckoutConfig
	Square        SquareConfig
	Storage       StorageConfig
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
	if _, err := cfg.Checkout.Rate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GEARSUPPLY_APP_ENV" required:"true"`
	Port         string `envconfig:"GEARSUPPLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GEARSUPPLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GEARSUPPLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GEARSUPPLY_DB_DSN"`
	Driver string `envconfig:"GEARSUPPLY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"GEARSUPPLY_DB_HOST"`
	Port     int    `envconfig:"GEARSUPPLY_DB_PORT" default:"5432"`
	User     string `envconfig:"GEARSUPPLY_DB_USER"`
	Password string `envconfig:"GEARSUPPLY_DB_PASSWORD"`
	Name     string `envconfig:"GEARSUPPLY_DB_NAME"`
	SSLMode  string `envconfig:"GEARSUPPLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GEARSUPPLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GEARSUPPLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GEARSUPPLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GEARSUPPLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GEARSUPPLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GEARSUPPLY_REDIS_ADDR"`
	Password     string        `envconfig:"GEARSUPPLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"GEARSUPPLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GEARSUPPLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GEARSUPPLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GEARSUPPLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GEARSUPPLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GEARSUPPLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GEARSUPPLY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GEARSUPPLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GEARSUPPLY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GEARSUPPLY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GEARSUPPLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GEARSUPPLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GEARSUPPLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GEARSUPPLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GEARSUPPLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GEARSUPPLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GEARSUPPLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GEARSUPPLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GEARSUPPLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GEARSUPPLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GEARSUPPLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// OTPConfig governs one-time code issuance and the server-side resend throttle.
type OTPConfig struct {
	CodeLength        int           `envconfig:"GEARSUPPLY_OTP_CODE_LENGTH" default:"6"`
	TTL               time.Duration `envconfig:"GEARSUPPLY_OTP_TTL" default:"15m"`
	MaxAttempts       int           `envconfig:"GEARSUPPLY_OTP_MAX_ATTEMPTS" default:"5"`
	ResendInterval    time.Duration `envconfig:"GEARSUPPLY_OTP_RESEND_INTERVAL" default:"120s"`
	ResendHourlyLimit int           `envconfig:"GEARSUPPLY_OTP_RESEND_HOURLY_LIMIT" default:"5"`
	ResetTokenTTL     time.Duration `envconfig:"GEARSUPPLY_RESET_TOKEN_TTL" default:"30m"`
}

type CheckoutConfig struct {
	TaxRate  string `envconfig:"GEARSUPPLY_CHECKOUT_TAX_RATE" default:"0.13"`
	Currency string `envconfig:"GEARSUPPLY_CHECKOUT_CURRENCY" default:"USD"`
}

// Rate parses the configured tax rate into a decimal.
func (c CheckoutConfig) Rate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid tax rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax rate must not be negative")
	}
	return rate, nil
}

type SquareConfig struct {
	AccessToken string `envconfig:"GEARSUPPLY_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"GEARSUPPLY_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"GEARSUPPLY_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type StorageConfig struct {
	Root        string `envconfig:"GEARSUPPLY_STORAGE_ROOT" default:"./data/uploads"`
	MaxUploadMB int    `envconfig:"GEARSUPPLY_MAX_UPLOAD_MB" default:"25"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GEARSUPPLY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		"GEARSUPPLY_DB_HOST": db.Host,
		"GEARSUPPLY_DB_USER": db.User,
		"GEARSUPPLY_DB_NAME": db.Name,
	}
	for _, env := range []string{"GEARSUPPLY_DB_HOST", "GEARSUPPLY_DB_USER", "GEARSUPPLY_DB_NAME"} {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either GEARSUPPLY_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
