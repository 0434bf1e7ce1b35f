package storage

import "strings"

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Prefix is the key prefix packs are published under, e.g. "broker-packs".
	Prefix string
}

// Enabled reports whether a mirror endpoint is configured.
func (c *MinIOConfig) Enabled() bool {
	return c != nil && c.Endpoint != ""
}

func (c *MinIOConfig) prefix() string {
	p := strings.Trim(c.Prefix, "/")
	if p == "" {
		return "broker-packs"
	}
	return p
}
