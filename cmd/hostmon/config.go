package main

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/hostmon/internal/model"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = model.DefaultAPIPort
	defaultAPIKey         = model.DefaultAPIKey
	defaultQueryTimeout   = model.DefaultQueryTimeout
	defaultBackupInterval = 6 * time.Hour
	defaultBackupKeepLast = 24
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	APIPort      int           `mapstructure:"api-port" yaml:"api-port"`
	APIAddr      string        `mapstructure:"api-addr" yaml:"api-addr"`
	APIKey       string        `mapstructure:"api-key" yaml:"api-key"`
	DBPath       string        `mapstructure:"db-path" yaml:"db-path"`
	QueryTimeout time.Duration `mapstructure:"query-timeout" yaml:"query-timeout"`
	StaticDir    string        `mapstructure:"static-dir" yaml:"static-dir"`
	LogFile      string        `mapstructure:"log-file" yaml:"log-file"`

	BackupEnabled        bool          `mapstructure:"backup-enabled" yaml:"backup-enabled"`
	BackupInterval       time.Duration `mapstructure:"backup-interval" yaml:"backup-interval"`
	BackupLocalDir       string        `mapstructure:"backup-local-dir" yaml:"backup-local-dir"`
	BackupKeepLast       int           `mapstructure:"backup-keep-last" yaml:"backup-keep-last"`
	BackupBucketURL      string        `mapstructure:"backup-bucket-url" yaml:"backup-bucket-url"`
	BackupS3Endpoint     string        `mapstructure:"backup-s3-endpoint" yaml:"backup-s3-endpoint"`
	BackupS3Region       string        `mapstructure:"backup-s3-region" yaml:"backup-s3-region"`
	BackupS3AccessKey    string        `mapstructure:"backup-s3-access-key" yaml:"backup-s3-access-key"`
	BackupS3SecretKey    string        `mapstructure:"backup-s3-secret-key" yaml:"backup-s3-secret-key"`
	BackupS3SessionToken string        `mapstructure:"backup-s3-session-token" yaml:"backup-s3-session-token"`
	BackupS3UseSSL       bool          `mapstructure:"backup-s3-use-ssl" yaml:"backup-s3-use-ssl"`

	ConfigPath string `mapstructure:"-" yaml:"-"` // not from config file
}

// usesDefaultKey reports whether the shared secret was left at its
// development value.
func (c appConfig) usesDefaultKey() bool {
	return c.APIKey == defaultAPIKey
}

const redacted = "REDACTED"

// dump renders the effective configuration as YAML with secrets masked.
func (c appConfig) dump() ([]byte, error) {
	out := c
	if out.APIKey != "" && !out.usesDefaultKey() {
		out.APIKey = redacted
	}
	if out.BackupS3SecretKey != "" {
		out.BackupS3SecretKey = redacted
	}
	if out.BackupS3SessionToken != "" {
		out.BackupS3SessionToken = redacted
	}
	return yaml.Marshal(out)
}
