// Package config provides environment-driven settings for the nasweb server:
// log level, folders, listen address, session and Redis options.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const (
	defaultPort          = 5000
	defaultSessionMaxAge = 24 * 60 // minutes
	defaultLang          = "en-US"
)

// LoadEnv reads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Variables that are already set win.
// Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("NASWEB_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

// IsMetricsEnabled reports whether /metrics is served.
func IsMetricsEnabled() bool {
	return os.Getenv("NASWEB_METRICS") == "true"
}

func IsDebug() bool {
	return os.Getenv("NASWEB_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("NASWEB_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/nasweb"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return filepath.Join(GetDBFolderPath(), fmt.Sprintf("%s.db", GetName()))
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("NASWEB_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

// GetListen returns the IP the web server binds to. Empty means all interfaces.
func GetListen() string {
	return os.Getenv("NASWEB_LISTEN")
}

func GetPort() int {
	return getInt("NASWEB_PORT", defaultPort)
}

// GetSessionSecret returns the key used to sign session cookies.
// An empty value makes the server generate a random one on start.
func GetSessionSecret() string {
	return os.Getenv("NASWEB_SESSION_SECRET")
}

// GetSessionMaxAge returns the lifetime of a logged-in session in minutes.
func GetSessionMaxAge() int {
	return getInt("NASWEB_SESSION_MAX_AGE", defaultSessionMaxAge)
}

// GetRedisAddr returns the external Redis address. Empty selects the embedded server.
func GetRedisAddr() string {
	return os.Getenv("NASWEB_REDIS_ADDR")
}

// GetWebDomain returns the only Host the server answers to. Empty accepts any.
func GetWebDomain() string {
	return os.Getenv("NASWEB_DOMAIN")
}

func GetCertFile() string {
	return os.Getenv("NASWEB_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("NASWEB_KEY_FILE")
}

// GetLang returns the fallback language for flash and validation messages.
func GetLang() string {
	lang := os.Getenv("NASWEB_LANG")
	if lang == "" {
		return defaultLang
	}
	return lang
}

func getInt(key string, def int) int {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
