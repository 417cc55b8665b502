package config

import (
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/PavanSai0211/Finance-Reporting-Project/transform"
)

type Config struct {
	Datasets   DatasetsConfig
	Output     OutputConfig
	Extract    ExtractConfig
	Warehouse  WarehouseConfig
	DuckDB     DuckDBConfig
	Postgres   PostgresConfig
	Artifacts  ArtifactsConfig
	StarSchema transform.SchemaSpec `mapstructure:"star_schema"`
	Report     ReportConfig
	Dashboard  DashboardConfig
	Log        LogConfig
	Env        string
}

type DatasetsConfig struct {
	Dir     string   `mapstructure:"dir"`
	Symbols []string `mapstructure:"symbols"`
}

type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Parquet bool   `mapstructure:"parquet"`
}

type ExtractConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Format  string `mapstructure:"format"`
	Backoff BackoffConfig
}

type BackoffConfig struct {
	RetryWaitMin time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
	RetryMax     int           `mapstructure:"retry_max"`
}

type WarehouseConfig struct {
	Driver  string `mapstructure:"driver"`
	Dataset string `mapstructure:"dataset"`
}

type DuckDBConfig struct {
	Path              string   `mapstructure:"path"`
	ConnInitFnQueries []string `mapstructure:"conn_init_fn_queries"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type ArtifactsConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket      string `mapstructure:"bucket"`
	Region      string `mapstructure:"region"`
	EndpointURL string `mapstructure:"endpoint_url"`
	Prefix      string `mapstructure:"prefix"`
}

type ReportConfig struct {
	Format     string         `mapstructure:"format"`
	Dir        string         `mapstructure:"dir"`
	From       string         `mapstructure:"from"`
	Recipients []string       `mapstructure:"recipients"`
	SMTP       SMTPConfig     `mapstructure:"smtp"`
	Schedule   ScheduleConfig `mapstructure:"schedule"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
}

// ScheduleConfig holds cron specs; an empty spec disables that report.
type ScheduleConfig struct {
	Monthly string `mapstructure:"monthly"`
	Yearly  string `mapstructure:"yearly"`
}

type DashboardConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
)

// NewConfig loads the configuration from the provided base config reader
// and merges it with the environment-specific configuration.
func NewConfig(baseConfigReader io.Reader, envConfigReader io.Reader, env string) (*Config, error) {
	if env == "" { // Use the provided 'env' or default to "dev"
		env = "dev"
	}

	viper.SetConfigType("yaml")

	// Read the base configuration
	if err := viper.ReadConfig(baseConfigReader); err != nil {
		return nil, fmt.Errorf("error reading base config: %w", err)
	}

	// Merge with environment-specific configuration (only if provided)
	if envConfigReader != nil {
		if err := viper.MergeConfig(envConfigReader); err != nil {
			log.Printf("Error merging environment-specific config: %s", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	config.Env = env

	return &config, nil
}

// Validate rejects settings the pipeline cannot act on.
func (c *Config) Validate() error {
	if c.Warehouse.Driver != "" && !slices.Contains([]string{DriverDuckDB, DriverPostgres}, c.Warehouse.Driver) {
		return fmt.Errorf("unsupported warehouse driver %q", c.Warehouse.Driver)
	}
	if c.Extract.Format != "" && !slices.Contains([]string{"csv", "zip"}, c.Extract.Format) {
		return fmt.Errorf("unsupported extract format %q", c.Extract.Format)
	}
	if c.Report.Format != "" && !slices.Contains([]string{"xlsx", "csv"}, c.Report.Format) {
		return fmt.Errorf("unsupported report format %q", c.Report.Format)
	}
	if len(c.StarSchema.Tables) > 0 {
		if err := c.StarSchema.Validate(); err != nil {
			return fmt.Errorf("invalid star_schema: %w", err)
		}
	}
	return nil
}

// SchemaSpec is the configured star schema, or the default one when none is configured.
func (c *Config) SchemaSpec() transform.SchemaSpec {
	if len(c.StarSchema.Tables) == 0 {
		return transform.DefaultSchemaSpec()
	}
	return c.StarSchema
}

// WarehouseDriver defaults to DuckDB.
func (c *Config) WarehouseDriver() string {
	if c.Warehouse.Driver == "" {
		return DriverDuckDB
	}
	return c.Warehouse.Driver
}
