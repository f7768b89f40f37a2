package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestPasswordPolicyValidate(t *testing.T) {
	policy := PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireNumber:    true,
		RequireSpecial:   true,
	}

	if err := policy.Validate("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if err := policy.Validate("lowercase1!"); err == nil {
		t.Fatalf("expected error for missing uppercase")
	}
	if err := policy.Validate("UPPERCASE1!"); err == nil {
		t.Fatalf("expected error for missing lowercase")
	}
	if err := policy.Validate("NoNumber!"); err == nil {
		t.Fatalf("expected error for missing number")
	}
	if err := policy.Validate("NoSpecial1"); err == nil {
		t.Fatalf("expected error for missing special")
	}
	if err := policy.Validate("GoodPass1!"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}

func TestPasswordPolicyDefaultOnlyChecksLength(t *testing.T) {
	policy := PasswordPolicy{MinLength: 8}

	if err := policy.Validate("1234567"); err == nil {
		t.Fatalf("expected error for 7 character password")
	}
	if err := policy.Validate("longenough1"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
}

func TestPasswordPolicyCountsCharactersNotBytes(t *testing.T) {
	policy := PasswordPolicy{MinLength: 8}

	if err := policy.Validate("éééé"); err == nil {
		t.Fatalf("expected error for 4 character password of 8 bytes")
	}
	if err := policy.Validate("éééééééé"); err != nil {
		t.Fatalf("expected 8 character password to pass, got %v", err)
	}
}

func chdirTemp(t *testing.T) string {
	t.Helper()

	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origDir)
	})
	return tmp
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	chdirTemp(t)

	lookuper := envconfig.MapLookuper(map[string]string{
		"MYSQL_DSN": "user:pass@tcp(localhost:3306)/journal",
	})
	if cfg, err := LoadWithLookuper(context.Background(), lookuper); err == nil || cfg != nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadRequiresMySQLDSN(t *testing.T) {
	chdirTemp(t)

	lookuper := envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
	})
	if cfg, err := LoadWithLookuper(context.Background(), lookuper); err == nil || cfg != nil {
		t.Fatalf("expected error when MYSQL_DSN is missing")
	}
}

func TestLoadSuccess(t *testing.T) {
	chdirTemp(t)

	lookuper := envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":                          "secret",
		"MYSQL_DSN":                           "user:pass@tcp(db:3306)/journal?parseTime=true",
		"HTTP_PORT":                           "8081",
		"GRPC_PORT":                           "9091",
		"JWT_ACCESS_TOKEN_TTL":                "20m",
		"JWT_REFRESH_TOKEN_TTL":               "48h",
		"RESET_TOKEN_TTL":                     "30m",
		"BCRYPT_COST":                         "4",
		"PASSWORD_MIN_LENGTH":                 "10",
		"PASSWORD_REQUIRE_LOWERCASE":          "true",
		"RATE_LIMIT_AUTH_REQUESTS_PER_MINUTE": "5",
		"SMTP_HOST":                           "smtp.example.com",
	})

	cfg, err := LoadWithLookuper(context.Background(), lookuper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTP.Port != "8081" || cfg.GRPC.Port != "9091" {
		t.Fatalf("unexpected ports: %s %s", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if cfg.DSN() != "user:pass@tcp(db:3306)/journal?parseTime=true" {
		t.Fatalf("unexpected mysql dsn: %s", cfg.DSN())
	}
	if cfg.JWT.AccessTokenTTL != 20*time.Minute || cfg.JWT.RefreshTokenTTL != 48*time.Hour {
		t.Fatalf("unexpected jwt ttl: %v %v", cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	}
	if cfg.Tokens.ResetTTL != 30*time.Minute {
		t.Fatalf("unexpected reset ttl: %v", cfg.Tokens.ResetTTL)
	}
	if cfg.Password.BcryptCost != 4 {
		t.Fatalf("unexpected bcrypt cost: %d", cfg.Password.BcryptCost)
	}
	if cfg.Password.Policy.MinLength != 10 ||
		cfg.Password.Policy.RequireUppercase != false ||
		cfg.Password.Policy.RequireLowercase != true {
		t.Fatalf("unexpected password policy: %+v", cfg.Password.Policy)
	}
	if cfg.RateLimit.AuthRequestsPerMinute != 5 || cfg.RateLimit.RequestsPerMinute != 60 {
		t.Fatalf("unexpected rate limits: %+v", cfg.RateLimit)
	}
	if !cfg.SMTP.Enabled() {
		t.Fatalf("expected smtp to be enabled")
	}
}

func TestLoadUsesDefaults(t *testing.T) {
	chdirTemp(t)

	lookuper := envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "secret",
		"MYSQL_DSN":  "user:pass@tcp(localhost:3306)/journal",
	})
	cfg, err := LoadWithLookuper(context.Background(), lookuper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.HTTP.Port != "8080" || cfg.GRPC.Port != "9090" {
		t.Fatalf("unexpected default ports: %s %s", cfg.HTTP.Port, cfg.GRPC.Port)
	}
	if cfg.JWT.AccessTokenTTL != 30*time.Minute || cfg.JWT.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("unexpected default jwt ttl: %v %v", cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	}
	if cfg.Tokens.ResetTTL != 15*time.Minute {
		t.Fatalf("unexpected default reset ttl: %v", cfg.Tokens.ResetTTL)
	}
	if cfg.Password.Policy.MinLength != 8 || cfg.Password.BcryptCost != 10 {
		t.Fatalf("unexpected password defaults: %+v", cfg.Password)
	}
	if cfg.RateLimit.TrustProxy {
		t.Fatalf("expected forwarded headers to be untrusted by default")
	}
	if !cfg.Database.AutoMigrate || !cfg.RateLimit.Enabled {
		t.Fatalf("expected auto migrate and rate limit to default to true")
	}
	if cfg.SMTP.Enabled() {
		t.Fatalf("expected smtp to be disabled without SMTP_HOST")
	}
	if cfg.SMTP.FrontendURL != "http://localhost:3000" {
		t.Fatalf("unexpected frontend url: %s", cfg.SMTP.FrontendURL)
	}
}

func TestWithParseTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "u:p@tcp(h:3306)/db", want: "u:p@tcp(h:3306)/db?parseTime=true"},
		{in: "u:p@tcp(h:3306)/db?charset=utf8mb4", want: "u:p@tcp(h:3306)/db?charset=utf8mb4&parseTime=true"},
		{in: "u:p@tcp(h:3306)/db?parseTime=true", want: "u:p@tcp(h:3306)/db?parseTime=true"},
		{in: "u:p@tcp(h:3306)/db?parseTime=false&x=1", want: "u:p@tcp(h:3306)/db?parseTime=false&x=1"},
	}
	for _, tc := range cases {
		if got := withParseTime(tc.in); got != tc.want {
			t.Fatalf("withParseTime(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestLoadDatabaseOnlyNeedsDSN(t *testing.T) {
	chdirTemp(t)

	lookuper := envconfig.MapLookuper(map[string]string{
		"MYSQL_DSN":       "u:p@tcp(h:3306)/db",
		"DB_AUTO_MIGRATE": "false",
	})
	cfg, err := LoadDatabase(context.Background(), lookuper)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MySQLDSN != "u:p@tcp(h:3306)/db?parseTime=true" || cfg.AutoMigrate {
		t.Fatalf("unexpected database config: %+v", cfg)
	}

	if _, err = LoadDatabase(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error when MYSQL_DSN is missing")
	}
}

func TestLoadRespectsEnvFileLocation(t *testing.T) {
	tmp := chdirTemp(t)

	envPath := filepath.Join(tmp, ".env")
	if err := os.WriteFile(envPath, []byte("JWT_SECRET=envfile-secret\nMYSQL_DSN=user:pass@tcp(localhost:3306)/journal?parseTime=true\nHTTP_PORT=9099\n"), 0600); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("JWT_SECRET")
		_ = os.Unsetenv("MYSQL_DSN")
		_ = os.Unsetenv("HTTP_PORT")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.JWT.Secret != "envfile-secret" || cfg.HTTP.Port != "9099" {
		t.Fatalf("expected env file values, got %s %s", cfg.JWT.Secret, cfg.HTTP.Port)
	}
}
