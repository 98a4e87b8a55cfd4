package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	DefaultSession = "demo-session-001"

	// ModeReadOnly rejects every mutating HTTP request.
	ModeReadOnly = "RO"
)

type HTTPServer struct {
	Host string
	Port string
	Mode string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SwipeLog struct {
	Backend    string
	SQLitePath string
	Session    string
}

type Catalog struct {
	Path string
}

type Log struct {
	Level string
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	SwipeLog SwipeLog
	Catalog  Catalog
	Log      Log
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	cfg, err := LoadFrom(*configPath)
	if err != nil {
		log.Fatalf("%s err loading env from file : %v", logtag, err)
	}
	return cfg
}

// LoadFrom reads the env file at path (or .env when path is empty) and
// builds the config from the resulting environment.
func LoadFrom(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.Printf("%s using env from : %s", logtag, path)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		SwipeLog: *newSwipeLog(),
		Catalog:  *newCatalog(),
		Log:      *newLog(),
	}

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg, nil
}

func (h HTTPServer) ReadOnly() bool {
	return strings.EqualFold(h.Mode, ModeReadOnly)
}

func (h HTTPServer) Addr() string {
	return h.Host + ":" + h.Port
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
		Mode: getenv("HTTP_MODE", "RW"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "localhost"),
		Password: getenv("REDIS_PASSWORD", ""),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "futarigohan"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newSwipeLog() *SwipeLog {
	return &SwipeLog{
		Backend:    strings.ToLower(getenv("SWIPELOG_BACKEND", BackendSQLite)),
		SQLitePath: getenv("SWIPELOG_SQLITE_PATH", "futarigohan.db"),
		Session:    getenv("SWIPELOG_SESSION", DefaultSession),
	}
}

func newCatalog() *Catalog {
	return &Catalog{
		Path: getenv("CATALOG_PATH", ""),
	}
}

func newLog() *Log {
	return &Log{
		Level: strings.ToLower(getenv("LOG_LEVEL", "info")),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	log.Printf("%s %s = %s\n", logtag, key, val)
	return val
}
