package config

const (
	EnvPrefix = "JANMANCH"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv  = "JANMANCH_APP_ENV"
	EnvAppPort = "JANMANCH_APP_PORT"

	EnvDBDSN  = "JANMANCH_DB_DSN"
	EnvDBHost = "JANMANCH_DB_HOST"
	EnvDBUser = "JANMANCH_DB_USER"
	EnvDBName = "JANMANCH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
