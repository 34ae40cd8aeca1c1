package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Reports validation
	if c.Reports.WineCSVPath == "" {
		errs = append(errs, "WINE_CSV_PATH is required")
	}
	if c.Reports.Dir == "" {
		errs = append(errs, "REPORTS_DIR is required")
	}
	if c.Reports.SinkTimeout <= 0 {
		errs = append(errs, "SINK_TIMEOUT must be positive")
	}

	// Reference validation
	if c.Reference.URL == "" {
		errs = append(errs, "REFERENCE_URL is required")
	} else if u, err := url.Parse(c.Reference.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("REFERENCE_URL (%q) must be an absolute URL", c.Reference.URL))
	}
	if c.Reference.Timeout <= 0 {
		errs = append(errs, "REFERENCE_TIMEOUT must be positive")
	}

	// Relational validation
	switch strings.ToLower(c.Relational.Backend) {
	case BackendSQLite:
	case BackendPostgres:
		if c.Relational.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required when RELATIONAL_BACKEND is postgres")
		}
		if c.Relational.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("RELATIONAL_BACKEND (%q) must be one of: sqlite, postgres", c.Relational.Backend))
	}
	if c.Relational.Table == "" {
		errs = append(errs, "RELATIONAL_TABLE is required")
	}

	// Videos validation
	if c.Videos.ArchiveURL == "" {
		errs = append(errs, "VIDEOS_ARCHIVE_URL is required")
	}
	if c.Videos.DataDir == "" {
		errs = append(errs, "VIDEOS_DATA_DIR is required")
	}
	if c.Videos.Collection == "" {
		errs = append(errs, "VIDEOS_COLLECTION is required")
	}
	if len(c.Videos.Categories) == 0 {
		errs = append(errs, "VIDEOS_CATEGORIES must list at least one category")
	}

	// Email validation
	if c.Email.Enabled() && (c.Email.SMTPPort <= 0 || c.Email.SMTPPort > 65535) {
		errs = append(errs, fmt.Sprintf("SMTP_PORT (%d) must be 1-65535", c.Email.SMTPPort))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// Credentials and connection strings are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Reports: {WineCSVPath: %q, Dir: %q, Strict: %v, SinkTimeout: %s}, ",
		c.Reports.WineCSVPath, c.Reports.Dir, c.Reports.Strict, c.Reports.SinkTimeout))
	b.WriteString(fmt.Sprintf("Reference: {URL: %q, Timeout: %s}, ", c.Reference.URL, c.Reference.Timeout))
	b.WriteString(fmt.Sprintf("Relational: {Backend: %q, Table: %q, DatabaseURL: %s}, ",
		c.Relational.Backend, c.Relational.Table, mask(c.Relational.DatabaseURL)))
	b.WriteString(fmt.Sprintf("Mongo: {URI: %s, DB: %q}, ", mask(c.Mongo.URI()), c.Mongo.DB))
	b.WriteString(fmt.Sprintf("Videos: {ArchiveURL: %q, Collection: %q, Categories: %v}, ",
		c.Videos.ArchiveURL, c.Videos.Collection, c.Videos.Categories))
	b.WriteString(fmt.Sprintf("Email: {Enabled: %v, SMTP: %q}, ", c.Email.Enabled(), c.Email.Addr()))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

// mask hides a secret value while showing whether it is set.
func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
