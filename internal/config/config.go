package config

import (
	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"importer"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string `envconfig:"STOCK_IMPORTER_ADDRESS" default:":3443"`
	MetricsAddress  string `envconfig:"STOCK_IMPORTER_METRICS_ADDRESS" default:":8080"`
	LogLevel        string `envconfig:"STOCK_IMPORTER_LOG_LEVEL" default:"info"`
	MigrationFolder string `envconfig:"STOCK_IMPORTER_MIGRATIONS_FOLDER" default:""`

	ImportWorkers   int    `envconfig:"STOCK_IMPORTER_IMPORT_WORKERS" default:"4"`
	ImportQueueSize int    `envconfig:"STOCK_IMPORTER_IMPORT_QUEUE_SIZE" default:"16"`
	ChunkSize       int    `envconfig:"STOCK_IMPORTER_CHUNK_SIZE" default:"1000"`
	StatusRetention string `envconfig:"STOCK_IMPORTER_STATUS_RETENTION" default:"24h"`

	StagingBackend string `envconfig:"STOCK_IMPORTER_STAGING_BACKEND" default:"local"`
	StagingDir     string `envconfig:"STOCK_IMPORTER_STAGING_DIR" default:"/var/lib/stock-importer/staging"`
	ErrorReportDir string `envconfig:"STOCK_IMPORTER_ERROR_REPORT_DIR" default:"/var/lib/stock-importer/reports"`

	Minio minioConfig
}

type minioConfig struct {
	Endpoint        string `envconfig:"STOCK_IMPORTER_MINIO_ENDPOINT" default:""`
	Bucket          string `envconfig:"STOCK_IMPORTER_MINIO_BUCKET" default:"staging"`
	AccessKey       string `envconfig:"STOCK_IMPORTER_MINIO_ACCESS_KEY" default:""`
	SecretAccessKey string `envconfig:"STOCK_IMPORTER_MINIO_SECRET_ACCESS_KEY" default:""`
	UseSSL          bool   `envconfig:"STOCK_IMPORTER_MINIO_USE_SSL" default:"false"`
}

// NewDefault returns a configuration backed by an in-memory sqlite database,
// used by tests.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{Type: "sqlite", Name: ":memory:"},
		Service: &svcConfig{
			LogLevel:        "info",
			ImportWorkers:   2,
			ImportQueueSize: 8,
			ChunkSize:       1000,
			StatusRetention: "24h",
			StagingBackend:  "local",
		},
	}
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}
