package config

// EnvPrefix namespaces every environment variable the app reads.
const EnvPrefix = "GALLERIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                 = "GALLERIA_APP_ENV"
	EnvPort                   = "GALLERIA_APP_PORT"
	EnvDBDSN                  = "GALLERIA_DB_DSN"
	EnvDBHost                 = "GALLERIA_DB_HOST"
	EnvDBUser                 = "GALLERIA_DB_USER"
	EnvDBName                 = "GALLERIA_DB_NAME"
	EnvRedisURL               = "GALLERIA_REDIS_URL"
	EnvJWTSecret              = "GALLERIA_JWT_SECRET"
	EnvJWTIssuer              = "GALLERIA_JWT_ISSUER"
	EnvJWTExpMins             = "GALLERIA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "GALLERIA_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "GALLERIA_GCP_PROJECT_ID"
	EnvGCSBucket              = "GALLERIA_GCS_BUCKET_NAME"
	EnvCheckoutSuccessURL     = "GALLERIA_CHECKOUT_SUCCESS_URL"
	EnvCheckoutCancelURL      = "GALLERIA_CHECKOUT_CANCEL_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
