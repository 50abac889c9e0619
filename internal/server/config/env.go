package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv loads .env into the process environment. A missing file is
// not an error; variables already set win over the file.
func loadDotEnv() {
	_ = godotenv.Load()
}

// parseEnv overlays values from environment variables.
//
// Recognised variables:
//
//	HTTP_ADDR, BASE_URL, DATABASE_URL, DATABASE_MAX_CONNS, SECRET_KEY,
//	SESSION_VALIDITY, COOKIE_SECURE, PRESIGN_VALIDITY,
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, S3_BUCKET, AWS_REGION, AWS_S3_ENDPOINT_URL,
//	SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM, SMTP_SSL,
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, LOG_BACKEND, LOG_LEVEL,
//	SCRATCH_DIR, MAX_UPLOAD_BYTES
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	setErr := func(name string, err error) {
		if firstErr == nil {
			firstErr = fmt.Errorf("env %s: %w", name, err)
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				setErr(name, err)
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				setErr(name, err)
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				setErr(name, err)
				return
			}
			*dst = d
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("BASE_URL", &c.BaseURL)
	str("DATABASE_URL", &c.DatabaseDSN)
	num("DATABASE_MAX_CONNS", &c.DBMaxConns)
	str("SECRET_KEY", &c.SecretKey)
	duration("SESSION_VALIDITY", &c.SessionValidity)
	boolean("COOKIE_SECURE", &c.CookieSecure)
	duration("PRESIGN_VALIDITY", &c.PresignValidity)

	str("AWS_ACCESS_KEY_ID", &c.S3RootUser)
	str("AWS_SECRET_ACCESS_KEY", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("AWS_REGION", &c.S3Region)
	str("AWS_S3_ENDPOINT_URL", &c.S3BaseEndpoint)

	str("SMTP_HOST", &c.SMTPHost)
	num("SMTP_PORT", &c.SMTPPort)
	str("SMTP_USERNAME", &c.SMTPUsername)
	str("SMTP_PASSWORD", &c.SMTPPassword)
	str("SMTP_FROM", &c.SMTPFrom)
	boolean("SMTP_SSL", &c.SMTPSSL)

	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	num("REDIS_DB", &c.RedisDB)

	str("LOG_BACKEND", &c.LogBackend)
	str("LOG_LEVEL", &c.LogLevel)

	str("SCRATCH_DIR", &c.ScratchDir)
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			setErr("MAX_UPLOAD_BYTES", err)
		} else {
			c.MaxUploadBytes = n
		}
	}

	return firstErr
}
