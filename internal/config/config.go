// Package config provides application configuration loaded from environment
// variables (optionally seeded from a .env file) with defaults and
// validation. It covers the HTTP server, logging, the SQLite path, rate
// limiting, observability, and the rental contract itself: its addresses,
// the oracle job and fee, request expiry, and the event broker.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "rentald")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ContractConfig fixes the contract instance at construction time. Once the
// state row exists these values (except where noted) are informational: the
// stored row wins.
type ContractConfig struct {
	Address        string          // CONTRACT_ADDRESS, the contract's ledger account
	Owner          string          // CONTRACT_OWNER, required
	FeeToken       string          // FEE_TOKEN_ADDRESS
	InitialRent    decimal.Decimal // INITIAL_RENTAL_AMOUNT in base units
	Qualifying     string          // QUALIFYING_CLASSIFICATION, e.g. "1"
	DateCacheBytes int64           // DATE_CACHE_MAX_BYTES
}

// OracleConfig describes the oracle endpoint and the date-check job.
type OracleConfig struct {
	Address     string          // ORACLE_ADDRESS, receives request fees
	Responders  []string        // ORACLE_RESPONDERS, accounts allowed to fulfill
	JobID       string          // ORACLE_JOB_ID
	Fee         decimal.Decimal // ORACLE_FEE in fee-token base units
	RequestTTL  time.Duration   // ORACLE_REQUEST_TTL
	ExpirySweep time.Duration   // ORACLE_EXPIRY_SWEEP, 0 disables the worker
}

// EventsConfig configures the event broker.
type EventsConfig struct {
	NATSURL         string        // NATS_URL, empty disables publishing
	BreakerFailures int           // EVENTS_BREAKER_FAILURES
	BreakerCooldown time.Duration // EVENTS_BREAKER_COOLDOWN
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub identifiers from access logs
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath string // SQLite path

	// Contract
	Contract ContractConfig
	Oracle   OracleConfig
	Events   EventsConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// Load reads the configuration from the environment. Malformed values and
// failed checks are all reported together in one joined error.
func Load() (Config, error) {
	e := &env{}
	cfg := Config{
		Port:              e.str("PORT", "8080"),
		ReadTimeout:       e.dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: e.dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      e.dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       e.dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    e.integer("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(e.str("GIN_MODE", "release")),

		LogLevel:       strings.ToLower(e.str("LOG_LEVEL", "info")),
		LogPretty:      e.flag("LOG_PRETTY", false),
		LogRedact:      e.flag("LOG_REDACT", true),
		SwaggerEnabled: e.flag("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(e.str("API_BASE_PATH", "/api/v1")),

		DBPath: e.str("DB_PATH", "rental.db"),

		Contract: ContractConfig{
			Address:        e.addr("CONTRACT_ADDRESS", defaultContractAddress),
			Owner:          e.addr("CONTRACT_OWNER", ""),
			FeeToken:       e.addr("FEE_TOKEN_ADDRESS", defaultFeeTokenAddress),
			InitialRent:    e.amount("INITIAL_RENTAL_AMOUNT", "10000000000000000"),
			Qualifying:     e.str("QUALIFYING_CLASSIFICATION", "1"),
			DateCacheBytes: int64(e.integer("DATE_CACHE_MAX_BYTES", 1<<20)),
		},
		Oracle: OracleConfig{
			Address:     e.addr("ORACLE_ADDRESS", defaultOracleAddress),
			Responders:  splitCSV(strings.ToLower(e.str("ORACLE_RESPONDERS", ""))),
			JobID:       e.str("ORACLE_JOB_ID", defaultJobID),
			Fee:         e.amount("ORACLE_FEE", "100000000000000000"),
			RequestTTL:  e.dur("ORACLE_REQUEST_TTL", 5*time.Minute),
			ExpirySweep: e.dur("ORACLE_EXPIRY_SWEEP", 30*time.Second),
		},
		Events: EventsConfig{
			NATSURL:         e.str("NATS_URL", ""),
			BreakerFailures: e.integer("EVENTS_BREAKER_FAILURES", 5),
			BreakerCooldown: e.dur("EVENTS_BREAKER_COOLDOWN", 30*time.Second),
		},

		RateRPS:   e.number("RATE_RPS", 5),
		RateBurst: e.integer("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(e.str("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: e.flag("ENABLE_HSTS", false),
			HSTSMaxAge: e.dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: e.dur("IDEMPOTENCY_TTL", 24*time.Hour),

		OTEL: OTELConfig{
			Enabled:     e.flag("OTEL_ENABLED", false),
			Endpoint:    e.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    e.flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: e.str("OTEL_SERVICE_NAME", "rentald"),
			SampleRatio: e.number("OTEL_TRACES_SAMPLER_ARG", 1),
		},
	}

	if len(cfg.Oracle.Responders) == 0 {
		cfg.Oracle.Responders = []string{cfg.Oracle.Address}
	}
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	return cfg, errors.Join(append(e.errs, cfg.validate()...)...)
}

// validate checks cross-field rules on an already parsed Config.
func (cfg Config) validate() []error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error, fatal, panic", cfg.LogLevel))
	}
	check(strings.TrimSpace(cfg.Port) != "", "PORT must not be empty")
	check(cfg.ReadTimeout > 0 && cfg.ReadHeaderTimeout > 0 && cfg.WriteTimeout > 0 && cfg.IdleTimeout > 0,
		"server timeouts must be positive")
	check(cfg.MaxHeaderBytes > 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(cfg.DBPath) != "", "DB_PATH must not be empty")

	check(cfg.Contract.Owner != "", "CONTRACT_OWNER must be set")
	check(cfg.Contract.Owner == "" || cfg.Contract.Address != cfg.Contract.Owner,
		"CONTRACT_ADDRESS and CONTRACT_OWNER must differ")
	for _, r := range cfg.Oracle.Responders {
		if !isAddress(r) {
			errs = append(errs, fmt.Errorf("ORACLE_RESPONDERS: %q is not a 0x-prefixed 20-byte hex address", r))
		}
	}
	q := strings.TrimSpace(cfg.Contract.Qualifying)
	check(q != "" && len(q) <= 32, "QUALIFYING_CLASSIFICATION must be 1 to 32 bytes")
	check(cfg.Contract.DateCacheBytes > 0, "DATE_CACHE_MAX_BYTES must be > 0")

	check(strings.TrimSpace(cfg.Oracle.JobID) != "", "ORACLE_JOB_ID must not be empty")
	check(cfg.Oracle.Fee.IsPositive(), "ORACLE_FEE must be > 0")
	check(cfg.Oracle.Address != cfg.Contract.Address, "CONTRACT_ADDRESS and ORACLE_ADDRESS must differ")
	check(cfg.Oracle.RequestTTL > 0, "ORACLE_REQUEST_TTL must be > 0")
	check(cfg.Oracle.ExpirySweep >= 0, "ORACLE_EXPIRY_SWEEP must be >= 0")
	check(cfg.Events.BreakerFailures >= 1, "EVENTS_BREAKER_FAILURES must be >= 1")
	check(cfg.Events.BreakerCooldown > 0, "EVENTS_BREAKER_COOLDOWN must be > 0")

	check(cfg.RateRPS >= 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst >= 1, "RATE_BURST must be >= 1")
	check(cfg.Security.HSTSMaxAge >= 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.IdempotencyTTL > 0, "IDEMPOTENCY_TTL must be > 0")
	check(cfg.OTEL.SampleRatio >= 0 && cfg.OTEL.SampleRatio <= 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	return errs
}

// LoadDotEnv seeds the environment from .env files. Variables that are
// already set are kept, and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Development defaults; CONTRACT_OWNER has none.
const (
	defaultContractAddress = "0x00000000000000000000000000000000000c0a7c"
	defaultFeeTokenAddress = "0x00000000000000000000000000000000000001c4"
	defaultOracleAddress   = "0x0000000000000000000000000000000000000aac"
	defaultJobID           = "0x3864393964306461373930323461363062663532393236656466343135346339"
)

var addressRe = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

func isAddress(s string) bool { return addressRe.MatchString(s) }

// env reads variables and remembers the ones it could not parse. Unset and
// empty variables take the default.
type env struct {
	errs []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *env) fail(k, v, want string) {
	e.errs = append(e.errs, fmt.Errorf("%s=%q: want %s", k, v, want))
}

func (e *env) str(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func (e *env) integer(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, v, "an integer")
		return def
	}
	return i
}

func (e *env) number(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, v, "a number")
		return def
	}
	return f
}

func (e *env) flag(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	e.fail(k, v, "a boolean")
	return def
}

func (e *env) dur(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, v, "a duration such as 30s")
		return def
	}
	return d
}

// addr reads a lower-cased account address. An unset variable with no
// default yields "" and is left to validate.
func (e *env) addr(k, def string) string {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	v = strings.ToLower(v)
	if !isAddress(v) {
		e.fail(k, v, "a 0x-prefixed 20-byte hex address")
	}
	return v
}

// amount reads a non-negative whole number of base units.
func (e *env) amount(k, def string) decimal.Decimal {
	v, ok := e.lookup(k)
	if !ok {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() || !d.IsInteger() {
		e.fail(k, v, "a non-negative integer amount of base units")
		return decimal.Zero
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath returns p with one leading slash and no trailing slash;
// empty means root.
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	return "/" + p
}
