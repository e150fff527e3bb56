package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danielhkuo/live-poll/auth"
)

// Supported database types
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
	DatabaseMongo    = "mongo"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	FrontendURL  string
	TeacherName  string
	RedisURL     string
}

// ParseFlags validates flags and falls back to the environment for anything unset
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("live-poll", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (postgres, sqlite or mongo)")
	fs.StringVar(&cfg.FrontendURL, "origin", "", "Allowed frontend origin (* for any)")
	fs.StringVar(&cfg.TeacherName, "teacher", "", "Sender name reserved for the teacher")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for multi-instance fan-out (optional)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 5000 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("MONGODB_URI")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
	}
	if cfg.DatabaseType == "" {
		cfg.DatabaseType = InferDatabaseType(cfg.DatabaseURL)
	}
	switch cfg.DatabaseType {
	case DatabasePostgres, DatabaseSQLite, DatabaseMongo:
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.FrontendURL == "" {
		cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "*"
	}

	if cfg.TeacherName == "" {
		cfg.TeacherName = os.Getenv("TEACHER_NAME")
	}
	if cfg.TeacherName == "" {
		cfg.TeacherName = auth.DefaultTeacherName
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	return cfg, nil
}

// InferDatabaseType guesses the backend from the connection string scheme
func InferDatabaseType(url string) string {
	switch {
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return DatabaseMongo
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DatabasePostgres
	default:
		return DatabaseSQLite
	}
}
