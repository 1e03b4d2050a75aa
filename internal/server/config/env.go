package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables, loading an
// optional .env file first. A missing .env file is not an error.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString("ENDPOINT_ADDR", &config.EndpointAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	envDuration("REFRESH_TOKEN_VALIDITY", &config.RefreshTokenValidityDuration)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envDuration("SIGNED_URL_TTL", &config.SignedURLTTL)
	envDuration("STORAGE_TIMEOUT", &config.StorageTimeout)
	envInt64("MAX_UPLOAD_BYTES", &config.MaxUploadBytes)
	envString("TEMP_DIR", &config.TempDir)

	if v, ok := os.LookupEnv("ALLOWED_MIME_TYPES"); ok && v != "" {
		parts := strings.Split(v, ",")
		types := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				types = append(types, p)
			}
		}
		config.AllowedMimeTypes = types
	}
}

func envString(name string, target *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*target = v
	}
}

func envInt64(name string, target *int64) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*target = n
		}
	}
}

func envDuration(name string, target *time.Duration) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}
