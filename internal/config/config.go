package config

import (
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the parish-ledger binaries.
// Nothing else should read the environment directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=parish_ledger"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	HttpListenAddr         string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpBaseRequestUrl     string        `env:"HTTP_BASE_REQUEST_URI,default=/api/v1"`
	HttpServerReadTimeout  time.Duration `env:"HTTP_SERVER_READ_TIMEOUT,default=15s"`
	HttpServerWriteTimeout time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT,default=15s"`
	HttpRequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=30s"`
	HttpMaxBodyBytes       int           `env:"HTTP_MAX_BODY_BYTES,default=16777216"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	PostgresSSLMode         string        `env:"POSTGRES_SSL_MODE,default=disable"`
	PostgresMaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS,default=20"`
	PostgresMaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS,default=5"`
	PostgresConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME,default=30m"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=parish:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=parish_ledger"`

	QueueName              string        `env:"QUEUE_NAME,default=ledger:outbox"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=ledger-posters"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME,default=processor-1"`
	QueueConsumers         int           `env:"QUEUE_CONSUMERS,default=2"`
	QueueWorkers           int           `env:"QUEUE_WORKERS,default=4"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=5"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=1m"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=500ms"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=20"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=100000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`

	ImportBalanceBatchSize   int `env:"IMPORT_BALANCE_BATCH_SIZE,default=50"`
	ImportBalanceConcurrency int `env:"IMPORT_BALANCE_CONCURRENCY,default=4"`

	MatchDuplicateWindowDays int `env:"MATCH_DUPLICATE_WINDOW_DAYS,default=3"`

	LedgerSweepInterval  time.Duration `env:"LEDGER_SWEEP_INTERVAL,default=1m"`
	LedgerSweepBatchSize int           `env:"LEDGER_SWEEP_BATCH_SIZE,default=100"`

	LockTTL time.Duration `env:"LOCK_TTL,default=30s"`

	StatementArchiveBucket string `env:"STATEMENT_ARCHIVE_BUCKET"`

	IngestListenAddr   string `env:"INGEST_LISTEN_ADDR,default=:8090"`
	IngestOperatorID   string `env:"INGEST_OPERATOR_ID,default=system:ingest"`
	IngestSharedSecret string `env:"INGEST_SHARED_SECRET"`

	StaffRoles []string `env:"STAFF_ROLES,default=admin|treasurer|secretary|church_leadership"`
}

func (c *Config) StaffRoleList() []string {
	var out []string
	for _, r := range c.StaffRoles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, strings.ToLower(r))
		}
	}
	return out
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	config = c
	return nil
}

// Set replaces the loaded configuration. Used by tests and the cli.
func Set(c *Config) {
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
