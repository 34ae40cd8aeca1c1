// Package config provides centralized configuration management for both
// pipelines. It loads configuration from environment variables with sensible
// defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Reports    ReportsConfig
	Reference  ReferenceConfig
	Relational RelationalConfig
	Mongo      MongoConfig
	Videos     VideosConfig
	Email      EmailConfig
	Logging    LoggingConfig
}

// ReportsConfig holds wine report pipeline settings.
type ReportsConfig struct {
	// WineCSVPath is the wine review source file
	WineCSVPath string `env:"WINE_CSV_PATH" default:"./data/winemag-data-130k-v2.csv"`

	// Dir is where file-based report sinks write (default: reportes)
	Dir string `env:"REPORTS_DIR" default:"reportes"`

	// Strict fails the load on a row whose column count differs from the header
	Strict bool `env:"LOADER_STRICT" default:"false"`

	// SinkTimeout bounds each report write (default: 60s)
	SinkTimeout time.Duration `env:"SINK_TIMEOUT" default:"60s"`
}

// ReferenceConfig holds the country/continent reference table settings.
type ReferenceConfig struct {
	URL     string        `env:"REFERENCE_URL" default:"https://raw.githubusercontent.com/plotly/datasets/master/2014_world_gdp_with_codes.csv"`
	Timeout time.Duration `env:"REFERENCE_TIMEOUT" default:"30s"`
}

// Relational backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// RelationalConfig selects where the price/quality report is stored.
type RelationalConfig struct {
	// Backend is sqlite (embedded file in the reports dir) or postgres
	Backend string `env:"RELATIONAL_BACKEND" default:"sqlite"`

	// Table is the destination table name (default: categoria_calidad)
	Table string `env:"RELATIONAL_TABLE" default:"categoria_calidad"`

	// DatabaseURL is the PostgreSQL connection string, required for postgres.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`
}

// MongoConfig holds document store settings. The store is optional: when no
// URI can be built the document sinks report themselves as not configured.
type MongoConfig struct {
	User    string `env:"MONGO_USER"`
	Pass    string `env:"MONGO_PASS"`
	Cluster string `env:"MONGO_CLUSTER"`
	DB      string `env:"MONGO_DB"`

	// RawURI overrides the URI built from user, password and cluster
	RawURI string `env:"MONGO_URI"`

	// Timeout bounds connecting to the store (default: 20s)
	Timeout time.Duration `env:"MONGO_TIMEOUT" default:"20s"`
}

// VideosConfig holds video export pipeline settings.
type VideosConfig struct {
	ArchiveURL string `env:"VIDEOS_ARCHIVE_URL" default:"https://netsg.cs.sfu.ca/youtubedata/0327.zip"`
	DataDir    string `env:"VIDEOS_DATA_DIR" default:"data/youtube"`
	Collection string `env:"VIDEOS_COLLECTION" default:"youtube_videos_filtrados"`

	// Categories is the comma-separated export filter
	Categories []string `env:"VIDEOS_CATEGORIES" default:"Music,Comedy"`

	// Seed drives the synthetic attributes; 0 picks a time-based seed
	Seed int64 `env:"VIDEOS_SEED" default:"0"`

	// DownloadTimeout bounds the archive download (default: 10m)
	DownloadTimeout time.Duration `env:"VIDEOS_DOWNLOAD_TIMEOUT" default:"10m"`
}

// EmailConfig holds report notification settings. Notification is skipped
// when User or Pass is empty.
type EmailConfig struct {
	User     string   `env:"EMAIL_USER"`
	Pass     string   `env:"EMAIL_PASS"`
	To       []string `env:"EMAIL_TO"`
	SMTPHost string   `env:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort int      `env:"SMTP_PORT" default:"465"`

	// Timeout bounds sending one message (default: 30s)
	Timeout time.Duration `env:"SMTP_TIMEOUT" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Configured reports whether a document store URI is available.
func (c *MongoConfig) Configured() bool {
	return c.URI() != "" && c.DB != ""
}

// URI returns the connection URI: RawURI if set, otherwise an SRV URI built
// from user, password and cluster. Returns "" when those are incomplete.
func (c *MongoConfig) URI() string {
	if c.RawURI != "" {
		return c.RawURI
	}
	if c.User == "" || c.Pass == "" || c.Cluster == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.User, c.Pass),
		Host:     c.Cluster,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// Enabled reports whether mail credentials are configured.
func (c *EmailConfig) Enabled() bool {
	return c.User != "" && c.Pass != ""
}

// Addr returns the SMTP server address in host:port format.
func (c *EmailConfig) Addr() string {
	return c.SMTPHost + ":" + strconv.Itoa(c.SMTPPort)
}
