package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/wesley950/coisando-coisas/internal/flagx"
	"github.com/wesley950/coisando-coisas/internal/timex"
)

// JSONConfig is the on-disk shape of the optional JSON config file.
// Durations accept both "2m" strings and integer nanoseconds. Only
// fields present in the file override earlier layers.
type JSONConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	BaseURL         *string         `json:"base_url"`
	DatabaseDSN     *string         `json:"database_dsn"`
	DBMaxConns      *int            `json:"database_max_conns"`
	SecretKey       *string         `json:"secret_key"`
	SessionValidity *timex.Duration `json:"session_validity"`
	CookieSecure    *bool           `json:"cookie_secure"`
	PresignValidity *timex.Duration `json:"presign_validity"`
	S3RootUser      *string         `json:"s3_root_user"`
	S3RootPassword  *string         `json:"s3_root_password"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3BaseEndpoint  *string         `json:"s3_base_endpoint"`
	SMTPHost        *string         `json:"smtp_host"`
	SMTPPort        *int            `json:"smtp_port"`
	SMTPUsername    *string         `json:"smtp_username"`
	SMTPPassword    *string         `json:"smtp_password"`
	SMTPFrom        *string         `json:"smtp_from"`
	SMTPSSL         *bool           `json:"smtp_ssl"`
	RedisAddr       *string         `json:"redis_addr"`
	RedisPassword   *string         `json:"redis_password"`
	RedisDB         *int            `json:"redis_db"`
	LogBackend      *string         `json:"log_backend"`
	LogLevel        *string         `json:"log_level"`
	ScratchDir      *string         `json:"scratch_dir"`
	MaxUploadBytes  *int64          `json:"max_upload_bytes"`
}

// parseJSON overlays values from the file named by -c/-config, if any.
func parseJSON(c *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var j JSONConfig
	if err := json.Unmarshal(b, &j); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.HTTPAddr, j.HTTPAddr)
	setString(&c.BaseURL, j.BaseURL)
	setString(&c.DatabaseDSN, j.DatabaseDSN)
	setInt(&c.DBMaxConns, j.DBMaxConns)
	setString(&c.SecretKey, j.SecretKey)
	if j.SessionValidity != nil {
		c.SessionValidity = j.SessionValidity.Duration
	}
	setBool(&c.CookieSecure, j.CookieSecure)
	if j.PresignValidity != nil {
		c.PresignValidity = j.PresignValidity.Duration
	}
	setString(&c.S3RootUser, j.S3RootUser)
	setString(&c.S3RootPassword, j.S3RootPassword)
	setString(&c.S3Bucket, j.S3Bucket)
	setString(&c.S3Region, j.S3Region)
	setString(&c.S3BaseEndpoint, j.S3BaseEndpoint)
	setString(&c.SMTPHost, j.SMTPHost)
	setInt(&c.SMTPPort, j.SMTPPort)
	setString(&c.SMTPUsername, j.SMTPUsername)
	setString(&c.SMTPPassword, j.SMTPPassword)
	setString(&c.SMTPFrom, j.SMTPFrom)
	setBool(&c.SMTPSSL, j.SMTPSSL)
	setString(&c.RedisAddr, j.RedisAddr)
	setString(&c.RedisPassword, j.RedisPassword)
	setInt(&c.RedisDB, j.RedisDB)
	setString(&c.LogBackend, j.LogBackend)
	setString(&c.LogLevel, j.LogLevel)
	setString(&c.ScratchDir, j.ScratchDir)
	if j.MaxUploadBytes != nil {
		c.MaxUploadBytes = *j.MaxUploadBytes
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
