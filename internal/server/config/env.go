package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from environment variables. A .env
// file in the working directory is loaded first when present; real
// environment variables win over it.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DatabaseDSN, "DATABASE_URL")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setDuration(&cfg.AccessTokenValidityDuration, "ACCESS_TOKEN_TTL")
	setDuration(&cfg.RefreshTokenValidityDuration, "REFRESH_TOKEN_TTL")
	setString(&cfg.PhotoBackend, "PHOTO_BACKEND")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.UploadPublicPrefix, "UPLOAD_PUBLIC_PREFIX")
	setInt(&cfg.ThumbnailSize, "THUMBNAIL_SIZE")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3AccessKey, "S3_ACCESS_KEY")
	setString(&cfg.S3SecretKey, "S3_SECRET_KEY")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	setString(&cfg.S3PublicBaseURL, "S3_PUBLIC_BASE_URL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
