package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env  string `yaml:"env"`
	Port int    `yaml:"port"`

	// storage: memory | postgres | sqlite | mongo
	StoreDriver string `yaml:"storeDriver"`
	DBURL       string `yaml:"dbUrl"`
	DBMaxConns  int    `yaml:"dbMaxConns"`
	SQLitePath  string `yaml:"sqlitePath"`
	MongoURI    string `yaml:"mongoUri"`
	MongoDB     string `yaml:"mongoDb"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb"`

	// per-instructor lock: memory | redis
	LockBackend string `yaml:"lockBackend"`
	LockTTLMs   int    `yaml:"lockTtlMs"`

	JWTSecret           string `yaml:"jwtSecret"`
	JWTAccessTTLMinutes int    `yaml:"jwtAccessTtlMinutes"`
	BcryptCost          int    `yaml:"bcryptCost"`

	AdminEmail    string `yaml:"adminEmail"`
	AdminPassword string `yaml:"adminPassword"`
	AdminName     string `yaml:"adminName"`
	AdminRole     string `yaml:"adminRole"`

	OTELEnabled     bool    `yaml:"otelEnabled"`
	OTELEndpoint    string  `yaml:"otelEndpoint"`
	OTELSampleRatio float64 `yaml:"otelSampleRatio"`

	RateLimitPerMinute   int      `yaml:"rateLimitPerMinute"`
	CORSOrigins          []string `yaml:"corsOrigins"`
	MaxBodyBytes         int64    `yaml:"maxBodyBytes"`
	RequestTimeoutMs     int      `yaml:"requestTimeoutMs"`
	DirectoryCacheTTLSec int      `yaml:"directoryCacheTtlSec"`
}

func defaults() Config {
	return Config{
		Env:                  "dev",
		Port:                 8080,
		StoreDriver:          "memory",
		DBMaxConns:           5,
		SQLitePath:           "lecturehub.db",
		MongoURI:             "mongodb://127.0.0.1:27017",
		MongoDB:              "lecturehub",
		RedisAddr:            "127.0.0.1:6379",
		LockBackend:          "memory",
		LockTTLMs:            10000,
		JWTAccessTTLMinutes:  60,
		BcryptCost:           10,
		AdminName:            "Admin",
		AdminRole:            "admin",
		OTELEndpoint:         "localhost:4317",
		OTELSampleRatio:      1,
		RateLimitPerMinute:   120,
		CORSOrigins:          []string{"http://localhost:3000"},
		MaxBodyBytes:         1 << 20,
		RequestTimeoutMs:     5000,
		DirectoryCacheTTLSec: 30,
	}
}

// Load builds the config from defaults, then the YAML file named by CONFIG_FILE
// (if any), then environment variables. A .env file in the working directory
// is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if cfg.DBURL == "" {
		cfg.DBURL = buildDBURL()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	// keys absent from the file keep their current value
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Env = getEnv("APP_ENV", c.Env)
	c.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", c.StoreDriver))
	c.DBURL = getEnv("DB_URL", c.DBURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.LockBackend = strings.ToLower(getEnv("LOCK_BACKEND", c.LockBackend))
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.AdminEmail = getEnv("ADMIN_EMAIL", c.AdminEmail)
	c.AdminPassword = getEnv("ADMIN_PASSWORD", c.AdminPassword)
	c.AdminName = getEnv("ADMIN_NAME", c.AdminName)
	c.AdminRole = getEnv("ADMIN_ROLE", c.AdminRole)
	c.OTELEndpoint = getEnv("OTEL_ENDPOINT", c.OTELEndpoint)

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	var errs []error
	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"DB_MAX_CONNS", &c.DBMaxConns},
		{"REDIS_DB", &c.RedisDB},
		{"LOCK_TTL_MS", &c.LockTTLMs},
		{"JWT_ACCESS_TTL_MINUTES", &c.JWTAccessTTLMinutes},
		{"BCRYPT_COST", &c.BcryptCost},
		{"RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute},
		{"REQUEST_TIMEOUT_MS", &c.RequestTimeoutMs},
		{"DIRECTORY_CACHE_TTL_SEC", &c.DirectoryCacheTTLSec},
	}
	for _, it := range ints {
		v, err := getEnvInt(it.key, *it.dst)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*it.dst = v
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: MAX_BODY_BYTES: %w", err))
		} else {
			c.MaxBodyBytes = n
		}
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: OTEL_ENABLED: %w", err))
		} else {
			c.OTELEnabled = b
		}
	}

	if v := os.Getenv("OTEL_SAMPLE_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("config: OTEL_SAMPLE_RATIO: %w", err))
		} else {
			c.OTELSampleRatio = f
		}
	}

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case "memory", "postgres", "sqlite", "mongo":
	default:
		errs = append(errs, fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.LockBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("config: unknown LOCK_BACKEND %q", c.LockBackend))
	}

	if c.JWTSecret == "" && c.Env != "dev" && c.Env != "test" {
		errs = append(errs, errors.New("config: JWT_SECRET is required outside dev"))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: invalid PORT %d", c.Port))
	}

	return errors.Join(errs...)
}

func (c Config) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMs) * time.Millisecond
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c Config) DirectoryCacheTTL() time.Duration {
	return time.Duration(c.DirectoryCacheTTLSec) * time.Second
}

func (c Config) JWTAccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "lecturehub")
	pass := getEnv("DB_PASSWORD", "lecturehub")
	name := getEnv("DB_NAME", "lecturehub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: %w", key, err)
	}
	return num, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
