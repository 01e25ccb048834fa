package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
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
	Env          string `envconfig:"GALLERIA_APP_ENV" required:"true"`
	Port         string `envconfig:"GALLERIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GALLERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GALLERIA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"GALLERIA_DB_DSN"`
	Driver string `envconfig:"GALLERIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GALLERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"GALLERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GALLERIA_DB_USER"`
	LegacyPassword string `envconfig:"GALLERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"GALLERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"GALLERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GALLERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GALLERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GALLERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GALLERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GALLERIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GALLERIA_REDIS_ADDR"`
	Password     string        `envconfig:"GALLERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"GALLERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GALLERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GALLERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GALLERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GALLERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GALLERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"GALLERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"GALLERIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"GALLERIA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"GALLERIA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"GALLERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"GALLERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"GALLERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"GALLERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"GALLERIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"GALLERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"GALLERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"GALLERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"GALLERIA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"GALLERIA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"GALLERIA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GALLERIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GALLERIA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GALLERIA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"GALLERIA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GALLERIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"GALLERIA_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"GALLERIA_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"GALLERIA_GCS_DOWNLOAD_URL_EXPIRY" default:"24h"`
	MaxUploadMB       int           `envconfig:"GALLERIA_GCS_MAX_UPLOAD_MB" default:"50"`
}

type PubSubConfig struct {
	CollectionTopic string `envconfig:"GALLERIA_PUBSUB_COLLECTION_TOPIC" default:"galleria-collection-events"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"GALLERIA_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"GALLERIA_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"GALLERIA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	SuccessURL string `envconfig:"GALLERIA_CHECKOUT_SUCCESS_URL" required:"true"`
	CancelURL  string `envconfig:"GALLERIA_CHECKOUT_CANCEL_URL" required:"true"`
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
