package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestGetIntBool(t *testing.T) {
	os.Setenv("X_INT", "42")
	t.Cleanup(func() { os.Unsetenv("X_INT") })
	if v := getInt("X_INT", 1); v != 42 {
		t.Fatalf("want 42, got %d", v)
	}

	os.Setenv("X_BOOL_T", "true")
	os.Setenv("X_BOOL_F", "false")
	t.Cleanup(func() { os.Unsetenv("X_BOOL_T"); os.Unsetenv("X_BOOL_F") })
	if !getBool("X_BOOL_T", false) {
		t.Fatalf("want true")
	}
	if getBool("X_BOOL_F", true) {
		t.Fatalf("want false")
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("X_DUR", "15s")
	if d := getDuration("X_DUR", time.Second); d != 15*time.Second {
		t.Fatalf("want 15s, got %s", d)
	}
	t.Setenv("X_DUR", "7")
	if d := getDuration("X_DUR", time.Second); d != 7*time.Second {
		t.Fatalf("want 7s, got %s", d)
	}
	t.Setenv("X_DUR", "soon")
	if d := getDuration("X_DUR", time.Second); d != time.Second {
		t.Fatalf("want default, got %s", d)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("WHIB_DEFAULT_OSRM_URL", "http://osrm.local:5000")
	t.Setenv("WHIB_SECRET_KEY", "s3cret")
	t.Setenv("WHIB_FLASK_SECRET_KEY", "")
	t.Setenv("WHIB_OWNTRACKS_URL", "https://tracks.local")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Fatalf("addr: %q", cfg.Server.Addr)
	}
	if cfg.Session.TTL != 30*24*time.Hour {
		t.Fatalf("ttl: %s", cfg.Session.TTL)
	}
	if !cfg.Session.RefreshEachRequest {
		t.Fatalf("refresh each request should default on")
	}
	if cfg.OwnTracks.AuthTimeout != 10*time.Second {
		t.Fatalf("auth timeout: %s", cfg.OwnTracks.AuthTimeout)
	}
	if cfg.Location() != time.Local {
		t.Fatalf("want process local zone")
	}
}

func TestValidateReportsMissing(t *testing.T) {
	setRequired(t)
	t.Setenv("WHIB_OWNTRACKS_URL", "")
	err := FromEnv().Validate()
	var missing *MissingEnvError
	if !errors.As(err, &missing) {
		t.Fatalf("want MissingEnvError, got %v", err)
	}
	if got := err.Error(); got != "Missing Environment Variable: WHIB_OWNTRACKS_URL" {
		t.Fatalf("message: %q", got)
	}
}

func TestLegacySecretName(t *testing.T) {
	setRequired(t)
	t.Setenv("WHIB_SECRET_KEY", "")
	t.Setenv("WHIB_FLASK_SECRET_KEY", "legacy")
	cfg := FromEnv()
	if cfg.SecretKey != "legacy" {
		t.Fatalf("want legacy secret, got %q", cfg.SecretKey)
	}
}

func TestValidateTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_TIMEZONE", "Mars/Olympus_Mons")
	if err := FromEnv().Validate(); err == nil {
		t.Fatalf("want error for unknown zone")
	}
	t.Setenv("SERVER_TIMEZONE", "UTC")
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Location().String() != "UTC" {
		t.Fatalf("zone: %s", cfg.Location())
	}
}

type mapCache map[string]interface{}

func (m mapCache) Get(key string) (interface{}, error) {
	v, ok := m[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return v, nil
}

func TestApplyApolloOverrides(t *testing.T) {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.OSRM.DefaultURL = "http://a"
	applyApolloOverrides(mapCache{"log.level": "debug", "osrm.default_url": ""}, cfg)
	if cfg.Log.Level != "debug" {
		t.Fatalf("level: %s", cfg.Log.Level)
	}
	if cfg.OSRM.DefaultURL != "http://a" {
		t.Fatalf("empty remote value must not override: %s", cfg.OSRM.DefaultURL)
	}
	applyApolloOverrides(nil, cfg)
}

func TestApolloAppConfig(t *testing.T) {
	cfg := &Config{}
	cfg.Apollo.AppID = "whib"
	cfg.Apollo.Cluster = "default"
	cfg.Apollo.Addrs = "http://apollo-a:8080,http://apollo-b:8080"
	cfg.Apollo.AccessKey = "k"

	got := apolloAppConfig(cfg)
	if got.IP != cfg.Apollo.Addrs {
		t.Fatalf("server addresses not passed: %q", got.IP)
	}
	if got.NamespaceName != "application" {
		t.Fatalf("default namespace: %q", got.NamespaceName)
	}
	if got.AppID != "whib" || got.Cluster != "default" || got.Secret != "k" {
		t.Fatalf("unexpected app config: %+v", got)
	}

	cfg.Apollo.Namespace = "gateway"
	if ns := apolloAppConfig(cfg).NamespaceName; ns != "gateway" {
		t.Fatalf("namespace: %q", ns)
	}
}
