package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FIELDTOYOU"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FIELDTOYOU_DB_DSN"
	EnvDBHost = "FIELDTOYOU_DB_HOST"
	EnvDBUser = "FIELDTOYOU_DB_USER"
	EnvDBName = "FIELDTOYOU_DB_NAME"
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
	Store         StoreConfig
	PayPal        PayPalConfig
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
	Env          string `envconfig:"FIELDTOYOU_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDTOYOU_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIELDTOYOU_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDTOYOU_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FIELDTOYOU_DB_DSN"`
	Driver string `envconfig:"FIELDTOYOU_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FIELDTOYOU_DB_HOST"`
	LegacyPort     int    `envconfig:"FIELDTOYOU_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIELDTOYOU_DB_USER"`
	LegacyPassword string `envconfig:"FIELDTOYOU_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIELDTOYOU_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIELDTOYOU_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIELDTOYOU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIELDTOYOU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDTOYOU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDTOYOU_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDTOYOU_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIELDTOYOU_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDTOYOU_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDTOYOU_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDTOYOU_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIELDTOYOU_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIELDTOYOU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDTOYOU_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDTOYOU_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FIELDTOYOU_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FIELDTOYOU_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FIELDTOYOU_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FIELDTOYOU_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDTOYOU_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDTOYOU_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDTOYOU_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDTOYOU_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDTOYOU_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FIELDTOYOU_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FIELDTOYOU_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FIELDTOYOU_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FIELDTOYOU_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FIELDTOYOU_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FIELDTOYOU_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FIELDTOYOU_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FIELDTOYOU_AUTO_MIGRATE" default:"false"`
}

// StoreConfig carries storefront-wide defaults applied when a record
// does not specify its own value.
type StoreConfig struct {
	DefaultCurrency string `envconfig:"FIELDTOYOU_STORE_DEFAULT_CURRENCY" default:"ILS"`
	DefaultCountry  string `envconfig:"FIELDTOYOU_STORE_DEFAULT_COUNTRY" default:"Israel"`
	LowStockDefault int    `envconfig:"FIELDTOYOU_STORE_LOW_STOCK_THRESHOLD" default:"10"`
}

type PayPalConfig struct {
	ClientID     string        `envconfig:"FIELDTOYOU_PAYPAL_CLIENT_ID"`
	ClientSecret string        `envconfig:"FIELDTOYOU_PAYPAL_CLIENT_SECRET"`
	Mode         string        `envconfig:"FIELDTOYOU_PAYPAL_MODE" default:"sandbox"`
	ReturnURL    string        `envconfig:"FIELDTOYOU_PAYPAL_RETURN_URL"`
	CancelURL    string        `envconfig:"FIELDTOYOU_PAYPAL_CANCEL_URL"`
	Timeout      time.Duration `envconfig:"FIELDTOYOU_PAYPAL_TIMEOUT" default:"15s"`
}

// Live reports whether the client should target the production PayPal API.
func (p PayPalConfig) Live() bool {
	return strings.EqualFold(strings.TrimSpace(p.Mode), "live")
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
