package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func withEnv(t *testing.T, k, v string) {
	t.Helper()
	old, had := os.LookupEnv(k)
	if err := os.Setenv(k, v); err != nil {
		t.Fatalf("setenv %s: %v", k, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(k, old)
		} else {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server != DefaultServer {
		t.Fatalf("expected default server, got %q", cfg.Server)
	}
	if cfg.RequestTimeout() != DefaultTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.RequestTimeout())
	}
	if cfg.BreakerFailures() != DefaultBreakerFailures || cfg.BreakerCooldown() != DefaultBreakerCooldown {
		t.Fatalf("expected breaker defaults, got %d/%s", cfg.BreakerFailures(), cfg.BreakerCooldown())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	if err := cfg.Set("project", "42"); err != nil {
		t.Fatalf("set project: %v", err)
	}
	if err := cfg.Set("timeout", "3s"); err != nil {
		t.Fatalf("set timeout: %v", err)
	}
	if err := cfg.Set("breaker.failures", "5"); err != nil {
		t.Fatalf("set breaker.failures: %v", err)
	}
	if err := Save(dir, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFile(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Project != "42" || got.RequestTimeout() != 3*time.Second || got.BreakerFailures() != 5 {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	st, err := os.Stat(Path(dir))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 config file, got %v", st.Mode().Perm())
	}
}

func TestLoad_Precedence_FileThenDotEnvThenEnv(t *testing.T) {
	dir := t.TempDir()
	work := t.TempDir()

	cfg := Default()
	cfg.Server = "http://from-file"
	cfg.Project = "file-project"
	cfg.Session = "file-session"
	if err := Save(dir, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	dotEnv := "TASKBOARD_PROJECT=dotenv-project\nTASKBOARD_SESSION=dotenv-session\n"
	if err := os.WriteFile(filepath.Join(work, ".env"), []byte(dotEnv), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	withEnv(t, "TASKBOARD_SESSION", "env-session")

	got, err := Load(dir, work)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Server != "http://from-file" {
		t.Fatalf("expected server from file, got %q", got.Server)
	}
	if got.Project != "dotenv-project" {
		t.Fatalf("expected project from .env, got %q", got.Project)
	}
	if got.Session != "env-session" {
		t.Fatalf("expected session from environment, got %q", got.Session)
	}
}

func TestSet_RejectsUnknownKeyAndBadValues(t *testing.T) {
	cfg := Default()
	if err := cfg.Set("colour", "blue"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := cfg.Set("timeout", "soon"); err == nil {
		t.Fatalf("expected bad duration error")
	}
	if err := cfg.Set("breaker.failures", "-1"); err == nil {
		t.Fatalf("expected negative failures error")
	}
	cfg.Theme = "sepia"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected bad theme error")
	}
}

func TestEnvName(t *testing.T) {
	cases := map[string]string{
		"server":           "TASKBOARD_SERVER",
		"logFile":          "TASKBOARD_LOG_FILE",
		"breaker.cooldown": "TASKBOARD_BREAKER_COOLDOWN",
	}
	for in, want := range cases {
		if got := envName(in); got != want {
			t.Fatalf("envName(%q): expected %q, got %q", in, want, got)
		}
	}
}
