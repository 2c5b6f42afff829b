package config

import (
	"fmt"
	"strings"
)

const (
	BlobModeLocal = "local"
	BlobModeS3    = "s3"
	BlobModeAuto  = "auto"
)

// S3Config describes an S3-compatible bucket used for rendered report files.
type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKeyID       string
	SecretAccessKey   string
	PublicBaseURL     string
	PresignTTLSeconds int
	PreferPublicURL   bool
}

// MissingRequired lists the env keys that are still empty. PublicBaseURL is
// optional: without it downloads always go through presigned URLs.
func (c S3Config) MissingRequired() []string {
	required := []struct {
		key string
		val string
	}{
		{"S3_ENDPOINT", c.Endpoint},
		{"S3_REGION", c.Region},
		{"S3_BUCKET", c.Bucket},
		{"S3_ACCESS_KEY_ID", c.AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", c.SecretAccessKey},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			missing = append(missing, r.key)
		}
	}
	return missing
}

func (c S3Config) IsConfigured() bool {
	return len(c.MissingRequired()) == 0
}

func (c S3Config) isEmpty() bool {
	return len(c.MissingRequired()) == 5 && strings.TrimSpace(c.PublicBaseURL) == ""
}

// Diagnostics returns a log level, a stable code and a human message.
func (c S3Config) Diagnostics() (level string, code string, msg string) {
	if c.isEmpty() {
		return "INFO", "s3_not_configured", "not configured"
	}
	if missing := c.MissingRequired(); len(missing) > 0 {
		return "WARN", "s3_partial_config", fmt.Sprintf("partial config, missing=%v", missing)
	}
	return "INFO", "s3_ready", "ready"
}

// Summary is safe to log: secrets are reported only as set/unset.
func (c S3Config) Summary() string {
	return fmt.Sprintf("endpoint=%s region=%s bucket=%s public_base_url=%s presign_ttl=%ds access_key=%s secret_key=%s",
		orDash(c.Endpoint), orDash(c.Region), orDash(c.Bucket), orDash(c.PublicBaseURL),
		c.PresignTTLSeconds, setOrUnset(c.AccessKeyID), setOrUnset(c.SecretAccessKey))
}

// BlobConfig selects where report files live.
type BlobConfig struct {
	Mode string // local|s3|auto
	S3   S3Config
}

// UseS3 resolves auto mode against the S3 settings.
func (c BlobConfig) UseS3() bool {
	switch c.Mode {
	case BlobModeS3:
		return true
	case BlobModeAuto:
		return c.S3.IsConfigured()
	default:
		return false
	}
}

func orDash(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "-"
	}
	return v
}

func setOrUnset(v string) string {
	if strings.TrimSpace(v) == "" {
		return "unset"
	}
	return "set"
}
