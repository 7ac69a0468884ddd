package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry the fully
	// qualified variable names so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv     = "TIFFINBOX_APP_ENV"
	EnvPort       = "TIFFINBOX_APP_PORT"
	EnvDBDSN      = "TIFFINBOX_DB_DSN"
	EnvDBHost     = "TIFFINBOX_DB_HOST"
	EnvDBUser     = "TIFFINBOX_DB_USER"
	EnvDBName     = "TIFFINBOX_DB_NAME"
	EnvRedisURL   = "TIFFINBOX_REDIS_URL"
	EnvJWTSecret  = "TIFFINBOX_JWT_SECRET"
	EnvJWTIssuer  = "TIFFINBOX_JWT_ISSUER"
	EnvJWTExpMins = "TIFFINBOX_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
