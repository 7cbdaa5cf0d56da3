// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "NUTRILOG_"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Backup   BackupConfig   `yaml:"backup"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port" validate:"min=1,max=65535"`
	CORSOrigins []string `yaml:"cors_origins"`
	RateLimit   float64  `yaml:"rate_limit" validate:"gte=0"` // requests per second per client, 0 disables
	RateBurst   int      `yaml:"rate_burst" validate:"gte=0"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Mode string `yaml:"mode" validate:"oneof=development production"`
}

type BackupConfig struct {
	Dir  string   `yaml:"dir" validate:"required"`
	Keep int      `yaml:"keep" validate:"gte=1"`
	S3   S3Config `yaml:"s3"`
}

// S3Config enables off-site upload of backups when Bucket is set.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region" validate:"required_with=Bucket"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        5001,
			CORSOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			RateLimit:   20,
			RateBurst:   40,
		},
		Database: DatabaseConfig{Path: "data/nutrition.db"},
		Log:      LogConfig{Mode: "development"},
		Backup:   BackupConfig{Dir: "backups", Keep: 10, S3: S3Config{Prefix: "nutrition-log/"}},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then NUTRILOG_* environment variables. A
// .env file in the working directory is loaded into the environment first
// without overriding variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "HOST")
	setString(&c.Database.Path, "DB_PATH")
	setString(&c.Log.Mode, "LOG_MODE")
	setString(&c.Backup.Dir, "BACKUP_DIR")
	setString(&c.Backup.S3.Bucket, "S3_BUCKET")
	setString(&c.Backup.S3.Region, "S3_REGION")
	setString(&c.Backup.S3.Prefix, "S3_PREFIX")
	setString(&c.Backup.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Backup.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.Backup.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")

	if v, ok := lookup("CORS_ORIGINS"); ok {
		c.Server.CORSOrigins = splitList(v)
	}
	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Server.RateBurst, "RATE_BURST"); err != nil {
		return err
	}
	if err := setInt(&c.Backup.Keep, "BACKUP_KEEP"); err != nil {
		return err
	}
	if v, ok := lookup("RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT %q: %w", envPrefix, v, err)
		}
		c.Server.RateLimit = f
	}
	return nil
}

var validate = validator.New()

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, name string) {
	if v, ok := lookup(name); ok {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s %q: %w", envPrefix, name, v, err)
	}
	*dst = i
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
