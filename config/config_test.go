package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_ParseDefaults(t *testing.T) {
	t.Setenv("HOLYGRAIL_API_URL", "https://api.holygrail.example/v1/")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "https://api.holygrail.example/v1" {
		t.Fatalf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("Timeout = %s", cfg.API.Timeout)
	}

	expected := SessionConfig{
		Store:       SessionStoreCookie,
		UserKey:     "user",
		TokenKey:    "access_token",
		DefaultTTL:  24 * time.Hour,
		LandingPath: "/",
		LoginPath:   "/login",
	}
	if !reflect.DeepEqual(cfg.Session, expected) {
		t.Fatalf("unexpected session configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Session)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if !cfg.HTTP.CSRFEnabled {
		t.Fatal("CSRF protection should default to enabled")
	}
	if cfg.Redis.KeyPrefix != "holygrail:session:" {
		t.Fatalf("Redis.KeyPrefix = %q", cfg.Redis.KeyPrefix)
	}
}

func TestAppConfig_RequiresAPIURL(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected error when HOLYGRAIL_API_URL is unset")
	}
}

func TestAppConfig_ParseSessionEnv(t *testing.T) {
	t.Setenv("HOLYGRAIL_API_URL", "http://localhost:5000")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_USER_KEY", "hg_user")
	t.Setenv("SESSION_TOKEN_KEY", "hg_token")
	t.Setenv("SESSION_DEFAULT_TTL", "2h")
	t.Setenv("SESSION_LANDING_PATH", "/home")
	t.Setenv("SESSION_LOGIN_PATH", "https://evil.example/login")
	t.Setenv("REDIS_URI", " redis:6379 ")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_KEY_PREFIX", "hg:")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	expected := SessionConfig{
		Store:       SessionStoreRedis,
		UserKey:     "hg_user",
		TokenKey:    "hg_token",
		DefaultTTL:  2 * time.Hour,
		LandingPath: "/home",
		LoginPath:   "/login",
	}
	if !reflect.DeepEqual(cfg.Session, expected) {
		t.Fatalf("unexpected session configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Session)
	}
	if cfg.Redis.URI != "redis:6379" || cfg.Redis.DB != 3 || cfg.Redis.KeyPrefix != "hg:" {
		t.Fatalf("unexpected redis configuration: %#v", cfg.Redis)
	}
}

func TestSessionStoreKind_UnmarshalText(t *testing.T) {
	var k SessionStoreKind
	for _, valid := range []string{"cookie", "REDIS", " memory "} {
		if err := k.UnmarshalText([]byte(valid)); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", valid, err)
		}
	}
	if err := k.UnmarshalText([]byte("localStorage")); err == nil {
		t.Fatal("expected error for unknown store kind")
	}
}

func TestSessionConfig_Sanitize(t *testing.T) {
	tests := []struct {
		name string
		in   SessionConfig
		want SessionConfig
	}{
		{
			name: "blanks get defaults",
			in:   SessionConfig{},
			want: SessionConfig{
				Store: SessionStoreCookie, UserKey: "user", TokenKey: "access_token",
				DefaultTTL: 24 * time.Hour, LandingPath: "/", LoginPath: "/login",
			},
		},
		{
			name: "colliding keys are separated",
			in: SessionConfig{
				Store: SessionStoreMemory, UserKey: "same", TokenKey: "same",
				DefaultTTL: -time.Second, LandingPath: "//evil.example", LoginPath: "/signin",
			},
			want: SessionConfig{
				Store: SessionStoreMemory, UserKey: "same", TokenKey: "access_token",
				DefaultTTL: 24 * time.Hour, LandingPath: "/", LoginPath: "/signin",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Sanitize()
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Sanitize():\nexpected: %#v\ngot:      %#v", tt.want, got)
			}
		})
	}
}

func TestRedisConfig_Sanitize(t *testing.T) {
	cfg := RedisConfig{
		KeyPrefix:     " ",
		DB:            -1,
		UseSentinel:   true,
		SentinelNodes: []string{" ", ""},
		UseCluster:    true,
		ClusterNodes:  []string{" a:1 ", "", "b:2"},
	}
	cfg.Sanitize()

	if cfg.KeyPrefix != "holygrail:session:" || cfg.DB != 0 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.UseSentinel {
		t.Fatal("sentinel without nodes should be disabled")
	}
	if !cfg.UseCluster || !reflect.DeepEqual(cfg.ClusterNodes, []string{"a:1", "b:2"}) {
		t.Fatalf("unexpected cluster config: %#v", cfg.ClusterNodes)
	}
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{API: APIConfig{BaseURL: "http://x"}}
	cfg.Sanitize()
	if !cfg.IsDev || cfg.SecureCookies() {
		t.Fatalf("expected dev mode without secure cookies, got IsDev=%v", cfg.IsDev)
	}

	t.Setenv("NODE_ENV", "production")
	prod := AppConfig{}
	prod.Sanitize()
	if prod.IsDev || !prod.SecureCookies() {
		t.Fatal("expected production mode with secure cookies")
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	h := HTTPConfig{CompressionLevel: 42}
	h.Sanitize()
	if h.CompressionLevel != 9 || h.Addr != ":8080" {
		t.Fatalf("unexpected http config: %#v", h)
	}
	h.CompressionLevel = 0
	h.Sanitize()
	if h.CompressionLevel != 1 {
		t.Fatalf("CompressionLevel = %d, want 1", h.CompressionLevel)
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	cfg.Sanitize()
	if cfg.IsEnabled() {
		t.Fatal("metrics without an address must be disabled")
	}

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: " 127.0.0.1:8125 "}
	cfg.Sanitize()
	if !cfg.IsEnabled() || cfg.StatsdAddress != "127.0.0.1:8125" {
		t.Fatalf("unexpected metrics config: %#v", cfg)
	}
}
