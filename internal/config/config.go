package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env                    string
	ServerAddr             string
	APIPrefix              string
	MongoURI               string
	MongoDB                string
	RedisURL               string
	RedisAddr              string
	RedisPassword          string
	RedisDB                int
	CacheTTLSeconds        int
	JWTSecret              string
	JWTIssuer              string
	TokenTTLMinutes        int
	AdminLoginPassword     string
	AdminLoginPasswordHash string
	FrontendOrigins        []string
	StorageBucket          string
	StoragePublicBaseURL   string
	StorageCredentialsFile string
	UploadMaxMB            int
	RateLimitLoginPerMin   int
	ReconcileSchedule      string
	LogLevel               string
	Timezone               *time.Location
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_ADDR", ":3000")
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/offerapp")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL_SECONDS", 60)
	v.SetDefault("JWT_ISSUER", "offerapp-backend")
	v.SetDefault("TOKEN_TTL_MINUTES", 480)
	v.SetDefault("FRONTEND_ORIGINS", "http://localhost:4200")
	v.SetDefault("STORAGE_PUBLIC_BASE_URL", "https://storage.googleapis.com")
	v.SetDefault("UPLOAD_MAX_MB", 10)
	v.SetDefault("RATE_LIMIT_LOGIN_PER_MIN", 10)
	v.SetDefault("RECONCILE_SCHEDULE", "@every 6h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TZ", "UTC")
}

// Load reads configuration from the process environment, a .env file in the
// working directory (never overriding real variables) and an optional
// config.yaml whose keys mirror the variable names in lower case.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	v.AutomaticEnv()
	setDefaults(v)

	loc, err := time.LoadLocation(v.GetString("TZ"))
	if err != nil {
		return nil, err
	}

	mongoURI := v.GetString("MONGO_URI")
	mongoDB := v.GetString("MONGO_DB")
	if mongoDB == "" {
		mongoDB = mongoDBFromURI(mongoURI)
	}
	if mongoDB == "" {
		mongoDB = "offerapp"
	}

	cfg := &Config{
		Env:                    v.GetString("APP_ENV"),
		ServerAddr:             v.GetString("SERVER_ADDR"),
		APIPrefix:              normalizePrefix(v.GetString("API_PREFIX")),
		MongoURI:               mongoURI,
		MongoDB:                mongoDB,
		RedisURL:               v.GetString("REDIS_URL"),
		RedisAddr:              v.GetString("REDIS_ADDR"),
		RedisPassword:          v.GetString("REDIS_PASSWORD"),
		RedisDB:                v.GetInt("REDIS_DB"),
		CacheTTLSeconds:        v.GetInt("CACHE_TTL_SECONDS"),
		JWTSecret:              v.GetString("JWT_SECRET"),
		JWTIssuer:              v.GetString("JWT_ISSUER"),
		TokenTTLMinutes:        v.GetInt("TOKEN_TTL_MINUTES"),
		AdminLoginPassword:     v.GetString("ADMIN_LOGIN_PASSWORD"),
		AdminLoginPasswordHash: v.GetString("ADMIN_LOGIN_PASSWORD_HASH"),
		FrontendOrigins:        splitList(v.GetString("FRONTEND_ORIGINS")),
		StorageBucket:          v.GetString("STORAGE_BUCKET"),
		StoragePublicBaseURL:   strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
		StorageCredentialsFile: v.GetString("STORAGE_CREDENTIALS_FILE"),
		UploadMaxMB:            v.GetInt("UPLOAD_MAX_MB"),
		RateLimitLoginPerMin:   v.GetInt("RATE_LIMIT_LOGIN_PER_MIN"),
		ReconcileSchedule:      strings.TrimSpace(v.GetString("RECONCILE_SCHEDULE")),
		LogLevel:               v.GetString("LOG_LEVEL"),
		Timezone:               loc,
	}

	return cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func (c *Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) << 20
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// only the first path segment names the database
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || prefix == "/" {
		return ""
	}
	return "/" + strings.Trim(prefix, "/")
}

func splitList(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
