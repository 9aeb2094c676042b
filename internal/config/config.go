// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init 載入 .env / .env.local（若存在），不覆寫已設定的環境變數
func init() {
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", f, err)
		}
	}
}

const (
	defaultPort          = "3030"
	defaultDBUser        = "postgres"
	defaultDBPassword    = "postgres"
	defaultDBHost        = "test-statefulset-service"
	defaultDBPort        = "5432"
	defaultDBName        = "testdb"
	defaultDBSSLMode     = "disable"
	defaultDBMaxConns    = 4
	defaultRetryInterval = 5 * time.Second
	defaultAppMessage    = "No ConfigMap"
	defaultAppPassword   = "No Secret"
	defaultPVFilePath    = "/data/info.txt"
	defaultCacheTTL      = 60 * time.Second
	defaultLogLevel      = "info"
)

// Config 服務所有可由環境變數調整的設定
type Config struct {
	Port string

	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	DBSSLMode       string
	DBMaxConns      int
	DBRetryInterval time.Duration

	AppMessage  string
	AppPassword string
	Hostname    string
	PVFilePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	CORSAllowedOrigins []string
	ExposeDBErrors     bool

	LogLevel  string
	LogPretty bool
}

// Load 從環境變數讀取設定。無法解析的值一律退回預設值，不會失敗。
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", defaultPort),

		DBUser:          getEnv("DB_USER", defaultDBUser),
		DBPassword:      getEnv("DB_PASSWORD", defaultDBPassword),
		DBHost:          getEnv("DB_HOST", defaultDBHost),
		DBPort:          getEnv("DB_PORT", defaultDBPort),
		DBName:          getEnv("DB_NAME", defaultDBName),
		DBSSLMode:       getEnv("DB_SSLMODE", defaultDBSSLMode),
		DBMaxConns:      getEnvInt("DB_MAX_CONNS", defaultDBMaxConns),
		DBRetryInterval: getEnvSeconds("DB_RETRY_INTERVAL_SECONDS", defaultRetryInterval),

		AppMessage:  getEnv("APP_MESSAGE", defaultAppMessage),
		AppPassword: getEnv("APP_PASSWORD", defaultAppPassword),
		Hostname:    os.Getenv("HOSTNAME"),
		PVFilePath:  getEnv("PV_FILE_PATH", defaultPVFilePath),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvSeconds("CACHE_TTL_SECONDS", defaultCacheTTL),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ExposeDBErrors:     getEnvBool("EXPOSE_DB_ERRORS", true),

		LogLevel:  getEnv("LOG_LEVEL", defaultLogLevel),
		LogPretty: getEnvBool("LOG_PRETTY", false),
	}
}

// DatabaseURL 組出 postgres:// 連線字串（帳密會做 escape）
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost + ":" + c.DBPort,
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.DBSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// PoolURL 是給 pgxpool 用的連線字串，多了 pool_max_conns。
// migrate 走 database/sql，不能帶這個參數。
func (c *Config) PoolURL() string {
	return c.DatabaseURL() + "&pool_max_conns=" + strconv.Itoa(c.DBMaxConns)
}

// CacheEnabled 有設定 REDIS_ADDR 才啟用快取
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	s, err := strconv.Atoi(os.Getenv(key))
	if err != nil || s <= 0 {
		return fallback
	}
	return time.Duration(s) * time.Second
}

func getEnvList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
