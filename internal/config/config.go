package config // package config loads application configuration from environment variables

import (
    "log" // log reports configuration errors and halts execution
    "os"  // os provides access to environment variables
)

// Config holds the process-level settings.  Each field corresponds to an
// environment variable.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    JWTSecret string // secret used to verify access tokens
    LogLevel  string // minimum log level (DEBUG, INFO, WARN, ERROR)
    LogDir    string // directory for the daily JSON log files
    AuditLog  string // file the event consumer appends one line per event to
    Migrate   bool   // apply the embedded schema on startup
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing required variables cause the program to exit.
func Load() Config {
    return Config{
        Env:       must("APP_ENV"),
        Port:      must("APP_PORT"),
        DBUser:    must("DB_USER"),
        DBPass:    os.Getenv("DB_PASS"), // empty allowed
        DBHost:    must("DB_HOST"),
        DBPort:    must("DB_PORT"),
        DBName:    must("DB_NAME"),
        JWTSecret: must("JWT_SECRET"),
        LogLevel:  envStr("LOG_LEVEL", "INFO"),
        LogDir:    envStr("LOG_DIR", "logs"),
        AuditLog:  envStr("AUDIT_LOG_PATH", "logs/reservation.log"),
        Migrate:   envBool("DB_MIGRATE", true),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
