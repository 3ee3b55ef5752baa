package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Firebase     FirebaseConfig
	GeoIP        GeoIPConfig
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
	Env          string `envconfig:"JANMANCH_APP_ENV" required:"true"`
	Port         string `envconfig:"JANMANCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"JANMANCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"JANMANCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"JANMANCH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"JANMANCH_DB_DSN"`
	Driver string `envconfig:"JANMANCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JANMANCH_DB_HOST"`
	LegacyPort     int    `envconfig:"JANMANCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JANMANCH_DB_USER"`
	LegacyPassword string `envconfig:"JANMANCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"JANMANCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"JANMANCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"JANMANCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JANMANCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JANMANCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JANMANCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JANMANCH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"JANMANCH_REDIS_ADDR"`
	Password     string        `envconfig:"JANMANCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"JANMANCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JANMANCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JANMANCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JANMANCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JANMANCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JANMANCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"JANMANCH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"JANMANCH_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"JANMANCH_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"JANMANCH_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"JANMANCH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"JANMANCH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PresenceSubscription  string `envconfig:"JANMANCH_PUBSUB_PRESENCE_SUBSCRIPTION" required:"true"`
	AnalyticsTopic        string `envconfig:"JANMANCH_PUBSUB_ANALYTICS_TOPIC" required:"true"`
	AnalyticsSubscription string `envconfig:"JANMANCH_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset            string `envconfig:"JANMANCH_BIGQUERY_DATASET" default:"janmanch"`
	SessionEventsTable string `envconfig:"JANMANCH_BIGQUERY_SESSION_TABLE" default:"session_events"`
}

type FirebaseConfig struct {
	ProjectID       string `envconfig:"JANMANCH_FIREBASE_PROJECT_ID"`
	CredentialsJSON string `envconfig:"JANMANCH_FIREBASE_CREDENTIALS_JSON"`
}

type GeoIPConfig struct {
	BaseURL         string        `envconfig:"JANMANCH_GEOIP_BASE_URL" default:"http://ip-api.com/json"`
	ServicedCountry string        `envconfig:"JANMANCH_GEOIP_SERVICED_COUNTRY" default:"India"`
	Timeout         time.Duration `envconfig:"JANMANCH_GEOIP_TIMEOUT" default:"10s"`
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
