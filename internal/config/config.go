package config

import (
	"fmt"
	"net/netip"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
	StoreMemory   = "memory"
)

type Config struct {
	Port                    string        `env:"PORT" envDefault:"5001"`
	ServerReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ServerWriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ServerIdleTimeout       time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	RequestTimeout          time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	CookieTTL    time.Duration `env:"COOKIE_TTL" envDefault:"72h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	BcryptCost   int           `env:"BCRYPT_COST" envDefault:"10"`

	DatabaseURL   string `env:"DATABASE_URL"`
	StoreDriver   string `env:"STORE_DRIVER"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"auth"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"1"`

	CORSOrigins      []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	AuthRateLimitRPM int      `env:"AUTH_RATE_LIMIT_RPM" envDefault:"10"`
	// TrustedProxies lists the peers (IPs or CIDRs) whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty means forwarding headers are ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"pretty"`

	trustedProxyPrefixes []netip.Prefix
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	err := env.ParseWithOptions(cfg, env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): func(v string) (any, error) {
				return ParseDuration(v)
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.trustedProxyPrefixes, err = ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.JWTSecret = strings.TrimSpace(c.JWTSecret)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver == "" {
		c.StoreDriver = inferStoreDriver(c.DatabaseURL)
	}

	origins := make([]string, 0, len(c.CORSOrigins))
	for _, origin := range c.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.CORSOrigins = origins

	proxies := make([]string, 0, len(c.TrustedProxies))
	for _, proxy := range c.TrustedProxies {
		if trimmed := strings.TrimSpace(proxy); trimmed != "" {
			proxies = append(proxies, trimmed)
		}
	}
	c.TrustedProxies = proxies
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil {
		return fmt.Errorf("PORT must be a valid port number, got %q", c.Port)
	}

	if c.JWTExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}

	if c.CookieTTL <= 0 {
		return fmt.Errorf("COOKIE_TTL must be positive")
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}

	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres, StoreMongo:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", c.StoreDriver)
		}
	case "":
		return fmt.Errorf("DATABASE_URL is required (or set STORE_DRIVER=memory)")
	default:
		return fmt.Errorf("STORE_DRIVER must be one of postgres, mongo, memory; got %q", c.StoreDriver)
	}

	if c.AuthRateLimitRPM <= 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT_RPM must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if _, err := ParseTrustedProxies(c.TrustedProxies); err != nil {
		return err
	}

	return nil
}

func inferStoreDriver(databaseURL string) string {
	lower := strings.ToLower(databaseURL)
	switch {
	case lower == "":
		return ""
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		return StoreMongo
	default:
		return StorePostgres
	}
}

// ParseDuration accepts Go durations ("15m", "24h") and whole or fractional
// days ("1d", "1.5d").
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	return d, nil
}

// TrustedProxyPrefixes returns the parsed TRUSTED_PROXIES set. A Config built
// without Load trusts no proxy.
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	return c.trustedProxyPrefixes
}

// ParseTrustedProxies accepts bare addresses ("10.0.0.1") and CIDRs ("10.0.0.0/8").
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address %q", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}
