package config

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	HTTP      HTTPConfig
	GRPC      GRPCConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Tokens    TokenConfig
	Password  PasswordConfig
	SMTP      SMTPConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type HTTPConfig struct {
	Host string `env:"HTTP_HOST"`
	Port string `env:"HTTP_PORT, default=8080"`
}

type GRPCConfig struct {
	Host string `env:"GRPC_HOST"`
	Port string `env:"GRPC_PORT, default=9090"`
}

type DatabaseConfig struct {
	MySQLDSN    string `env:"MYSQL_DSN, required"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE, default=true"`
}

type JWTConfig struct {
	Secret          string        `env:"JWT_SECRET, required"`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TOKEN_TTL, default=30m"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TOKEN_TTL, default=168h"`
}

type TokenConfig struct {
	ResetTTL time.Duration `env:"RESET_TOKEN_TTL, default=15m"`
}

type PasswordConfig struct {
	BcryptCost int `env:"BCRYPT_COST, default=10"`
	Policy     PasswordPolicy
}

type PasswordPolicy struct {
	MinLength        int  `env:"PASSWORD_MIN_LENGTH, default=8"`
	RequireUppercase bool `env:"PASSWORD_REQUIRE_UPPERCASE, default=false"`
	RequireLowercase bool `env:"PASSWORD_REQUIRE_LOWERCASE, default=false"`
	RequireNumber    bool `env:"PASSWORD_REQUIRE_NUMBER, default=false"`
	RequireSpecial   bool `env:"PASSWORD_REQUIRE_SPECIAL, default=false"`
}

type SMTPConfig struct {
	Host        string `env:"SMTP_HOST"`
	Port        int    `env:"SMTP_PORT, default=587"`
	User        string `env:"SMTP_USER"`
	Password    string `env:"SMTP_PASSWORD"`
	FromEmail   string `env:"SMTP_FROM_EMAIL, default=noreply@journalapp.com"`
	TLS         bool   `env:"SMTP_TLS, default=true"`
	FrontendURL string `env:"FRONTEND_URL, default=http://localhost:3000"`
}

// Enabled reports whether outbound mail is configured at all.
func (c SMTPConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type RateLimitConfig struct {
	Enabled               bool `env:"RATE_LIMIT_ENABLED, default=true"`
	RequestsPerMinute     int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE, default=60"`
	AuthRequestsPerMinute int  `env:"RATE_LIMIT_AUTH_REQUESTS_PER_MINUTE, default=10"`

	// TrustProxy keys clients by X-Forwarded-For. Enable only behind a proxy
	// that overwrites the header.
	TrustProxy bool `env:"RATE_LIMIT_TRUST_PROXY, default=false"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Format string `env:"LOG_FORMAT, default=json"`
}

func (p PasswordPolicy) Validate(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Load reads the process configuration once. A .env file in the working
// directory is honoured but never overrides variables already set.
func Load() (*Config, error) {
	return LoadWithLookuper(context.Background(), envconfig.OsLookuper())
}

func LoadWithLookuper(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	cfg.Database.MySQLDSN = withParseTime(cfg.Database.MySQLDSN)
	return &cfg, nil
}

// LoadDatabase reads only the database settings, for commands that never
// issue tokens.
func LoadDatabase(ctx context.Context, lookuper envconfig.Lookuper) (*DatabaseConfig, error) {
	_ = godotenv.Load()

	var cfg DatabaseConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	cfg.MySQLDSN = withParseTime(cfg.MySQLDSN)
	return &cfg, nil
}

func (c *Config) DSN() string {
	return c.Database.MySQLDSN
}

// withParseTime makes sure DATETIME columns scan into time.Time.
func withParseTime(dsn string) string {
	if dsn == "" || strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&parseTime=true"
	}
	return dsn + "?parseTime=true"
}
