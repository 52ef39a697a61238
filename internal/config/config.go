// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"strings"
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

var configFile = altsrc.StringSourcer("config.toml")

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StoreSupabase = "supabase"
)

// Bounds for generated verification codes.
const (
	MinCodeLength = 4
	MaxCodeLength = 8
)

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server       ServerConfig
	Log          LogConfig
	TLS          TLSConfig
	Store        StoreConfig
	SMTP         SMTPConfig
	Verification VerificationConfig
	RateLimit    RateLimitConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, manual, off
	CertDir  string // ACME certificate cache
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB

	// TrustedProxies lists CIDRs or IPs whose X-Forwarded-For is honoured.
	// Empty means the peer address identifies the client.
	TrustedProxies []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

// StoreConfig selects where verification codes live.
type StoreConfig struct {
	Driver      string // sqlite, supabase
	DSN         string // SQLite DSN
	SupabaseURL string
	SupabaseKey string // service role key
}

// Configured reports whether the selected driver has everything it needs.
func (s StoreConfig) Configured() bool {
	switch s.Driver {
	case StoreSupabase:
		return s.SupabaseURL != "" && s.SupabaseKey != ""
	case StoreSQLite, "":
		return true
	default:
		return false
	}
}

type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether outgoing mail can be delivered over SMTP.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type VerificationConfig struct {
	CodeLength int
	CodeTTL    time.Duration
}

type RateLimitConfig struct {
	RedisURL     string // empty selects the in-memory limiter
	VerifyPerMin int
	SendPerMin   int
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:           cmd.String("host"),
			Port:           int(cmd.Int("port")),
			BaseURL:        cmd.String("base-url"),
			MaxBodySize:    int(cmd.Int("max-body-size")),
			TrustedProxies: cmd.StringSlice("trusted-proxies"),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		Store: StoreConfig{
			Driver:      strings.ToLower(cmd.String("store-driver")),
			DSN:         cmd.String("database-dsn"),
			SupabaseURL: strings.TrimSuffix(cmd.String("supabase-url"), "/"),
			SupabaseKey: cmd.String("supabase-service-role-key"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Verification: VerificationConfig{
			CodeLength: int(cmd.Int("code-length")),
			CodeTTL:    cmd.Duration("code-ttl"),
		},
		RateLimit: RateLimitConfig{
			RedisURL:     cmd.String("ratelimit-redis-url"),
			VerifyPerMin: int(cmd.Int("ratelimit-verify")),
			SendPerMin:   int(cmd.Int("ratelimit-send")),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}

	applyVerificationDefaults(cfg)

	return cfg
}

// applyVerificationDefaults keeps code settings inside their valid range.
func applyVerificationDefaults(cfg *Config) {
	cfg.Verification.CodeLength = min(max(cfg.Verification.CodeLength, MinCodeLength), MaxCodeLength)
	if cfg.Verification.CodeTTL <= 0 {
		cfg.Verification.CodeTTL = 15 * time.Minute
	}
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	scheme := "http"
	if shouldUseTLS(mode, host) {
		scheme = "https"
	}

	// ACME mode always uses port 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func source(env, key string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(env), toml.TOML(key, configFile))
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: source("HOST", "server.host"),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: source("PORT", "server.port"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL for the application",
			Sources: source("BASE_URL", "server.base_url"),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: source("MAX_BODY_SIZE", "server.max_body_size"),
		},
		&cli.StringSliceFlag{
			Name:    "trusted-proxies",
			Usage:   "Proxy CIDRs allowed to set X-Forwarded-For (peer address used when empty)",
			Sources: source("TRUSTED_PROXIES", "server.trusted_proxies"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: source("LOG_LEVEL", "log.level"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: source("LOG_FORMAT", "log.format"),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, manual, off)",
			Sources: source("TLS_MODE", "tls.mode"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for ACME certificates",
			Sources: source("TLS_CERT_DIR", "tls.cert_dir"),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: source("TLS_EMAIL", "tls.email"),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: source("TLS_CERT_FILE", "tls.cert_file"),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: source("TLS_KEY_FILE", "tls.key_file"),
		},
		// Store flags
		&cli.StringFlag{
			Name:    "store-driver",
			Value:   StoreSQLite,
			Usage:   "Verification code store (sqlite, supabase)",
			Sources: source("STORE_DRIVER", "store.driver"),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/app.db",
			Usage:   "SQLite database DSN",
			Sources: source("DATABASE_DSN", "store.dsn"),
		},
		&cli.StringFlag{
			Name:    "supabase-url",
			Usage:   "Supabase project URL",
			Sources: source("SUPABASE_URL", "store.supabase_url"),
		},
		&cli.StringFlag{
			Name:    "supabase-service-role-key",
			Usage:   "Supabase service role key",
			Sources: source("SUPABASE_SERVICE_ROLE_KEY", "store.supabase_service_role_key"),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (codes are logged when empty)",
			Sources: source("SMTP_HOST", "smtp.host"),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: source("SMTP_PORT", "smtp.port"),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: source("SMTP_USERNAME", "smtp.username"),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: source("SMTP_PASSWORD", "smtp.password"),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for verification emails",
			Sources: source("SMTP_FROM", "smtp.from"),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "Prayer App",
			Usage:   "Sender display name",
			Sources: source("SMTP_FROM_NAME", "smtp.from_name"),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: source("SMTP_TLS", "smtp.tls"),
		},
		// Verification flags
		&cli.IntFlag{
			Name:    "code-length",
			Value:   6,
			Usage:   "Digits per verification code (4-8)",
			Sources: source("CODE_LENGTH", "verification.code_length"),
		},
		&cli.DurationFlag{
			Name:    "code-ttl",
			Value:   15 * time.Minute,
			Usage:   "How long a verification code stays valid",
			Sources: source("CODE_TTL", "verification.code_ttl"),
		},
		// Rate limit flags
		&cli.StringFlag{
			Name:    "ratelimit-redis-url",
			Usage:   "Redis URL for rate limiting (in-memory when empty)",
			Sources: source("RATELIMIT_REDIS_URL", "ratelimit.redis_url"),
		},
		&cli.IntFlag{
			Name:    "ratelimit-verify",
			Value:   10,
			Usage:   "Verification attempts per minute per client",
			Sources: source("RATELIMIT_VERIFY", "ratelimit.verify"),
		},
		&cli.IntFlag{
			Name:    "ratelimit-send",
			Value:   5,
			Usage:   "Code requests per minute per client",
			Sources: source("RATELIMIT_SEND", "ratelimit.send"),
		},
	}
}
