package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"HOST", "PORT", "ENGINE_PATH", "ENGINE_MOVE_TIME", "ENGINE_DEPTH",
	"ENGINE_DEPTH_OR_TIME", "ENGINE_THREADS", "ENGINE_HASH", "LOG_STYLE",
	"LOG_LEVEL", "CORS_ALLOW_ORIGINS", "METRICS_ENABLED",
}

// writeConfig clears the environment overrides and points CHESSGPT_CONFIG at
// a file holding body, so the developer's own config never leaks in.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("os.WriteFile error = %v", err)
	}
	t.Setenv("CHESSGPT_CONFIG", path)
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	writeConfig(t, "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:5000" {
		t.Fatalf("Addr = %q", cfg.Server.Addr())
	}
	if cfg.Engine.Path != "stockfish" || cfg.Engine.MoveTime != 100 || cfg.Engine.DepthOrTime {
		t.Fatalf("unexpected engine defaults %+v", cfg.Engine)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" {
		t.Fatalf("unexpected CORS defaults %v", cfg.CORS.AllowOrigins)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("unexpected metrics defaults %+v", cfg.Metrics)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	writeConfig(t, `
server:
  port: 8081
engine:
  path: /usr/games/stockfish
  move_time: 250
  grace: 500ms
  options:
    Threads: "2"
logs:
  style: json
  level: debug
`)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Server.Port != 8081 || cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Engine.Path != "/usr/games/stockfish" || cfg.Engine.MoveTime != 250 || cfg.Engine.Grace != 500*time.Millisecond {
		t.Fatalf("unexpected engine config %+v", cfg.Engine)
	}
	if cfg.Engine.Options["Threads"] != "2" {
		t.Fatalf("unexpected engine options %v", cfg.Engine.Options)
	}
	if cfg.Logs.Style != "json" || cfg.Logs.Level != "debug" {
		t.Fatalf("unexpected log config %+v", cfg.Logs)
	}
}

func TestLoadConfigExplicitPathWins(t *testing.T) {
	writeConfig(t, "server:\n  port: 7000\n")
	explicit := filepath.Join(t.TempDir(), "other.yaml")
	if err := os.WriteFile(explicit, []byte("server:\n  port: 7001\n"), 0o600); err != nil {
		t.Fatalf("os.WriteFile error = %v", err)
	}

	cfg, err := LoadConfig(explicit)
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Fatalf("port = %d, want 7001", cfg.Server.Port)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	writeConfig(t, "server:\n  port: 7000\nengine:\n  move_time: 300\n")
	t.Setenv("PORT", "9090")
	t.Setenv("ENGINE_PATH", "/opt/engine")
	t.Setenv("ENGINE_MOVE_TIME", "50")
	t.Setenv("ENGINE_THREADS", "4")
	t.Setenv("ENGINE_HASH", "128")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Engine.Path != "/opt/engine" || cfg.Engine.MoveTime != 50 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Engine.Options["Threads"] != "4" || cfg.Engine.Options["Hash"] != "128" {
		t.Fatalf("engine options = %v", cfg.Engine.Options)
	}
	if strings.Join(cfg.CORS.AllowOrigins, "|") != "https://a.test|https://b.test" {
		t.Fatalf("origins = %v", cfg.CORS.AllowOrigins)
	}
	if cfg.Metrics.Enabled {
		t.Fatalf("metrics should be disabled")
	}
}

func TestLoadConfigDepthMode(t *testing.T) {
	writeConfig(t, "")
	t.Setenv("ENGINE_DEPTH_OR_TIME", "true")
	t.Setenv("ENGINE_DEPTH", "15")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error = %v", err)
	}
	if !cfg.Engine.DepthOrTime || cfg.Engine.Depth != 15 {
		t.Fatalf("unexpected engine config %+v", cfg.Engine)
	}
}

func TestLoadConfigRejectsBadEnv(t *testing.T) {
	writeConfig(t, "")
	t.Setenv("PORT", "fifty")
	t.Setenv("METRICS_ENABLED", "maybe")

	_, err := LoadConfig("")
	if err == nil {
		t.Fatalf("LoadConfig should fail on malformed env values")
	}
	if !strings.Contains(err.Error(), "PORT") || !strings.Contains(err.Error(), "METRICS_ENABLED") {
		t.Fatalf("error should name both bad keys: %v", err)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	writeConfig(t, "server: [not, a, map")
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("LoadConfig should fail on malformed YAML")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	writeConfig(t, "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("LoadConfig should fail when the named file does not exist")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	cfg.Engine.Path = ""
	cfg.Engine.MoveTime = 0
	cfg.Logs.Style = "xml"
	cfg.CORS.AllowOrigins = nil
	cfg.Metrics.Path = "metrics"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("Validate should fail")
	}
	for _, field := range []string{"server.port", "engine.path", "engine.move_time", "logs.style", "cors.allow_origins", "metrics.path"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("Validate error missing %s: %v", field, err)
		}
	}
}

func TestValidateDepthMode(t *testing.T) {
	cfg := Defaults()
	cfg.Engine.DepthOrTime = true
	cfg.Engine.MoveTime = 0
	cfg.Engine.Depth = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "engine.depth") {
		t.Fatalf("expected engine.depth error, got %v", err)
	}
}

func TestLoadConfigRejectsOriginWithoutScheme(t *testing.T) {
	writeConfig(t, "")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://ok.test,example.com")

	_, err := LoadConfig("")
	if err == nil || !strings.Contains(err.Error(), `"example.com"`) {
		t.Fatalf("expected cors.allow_origins error naming example.com, got %v", err)
	}
	if strings.Contains(err.Error(), "ok.test") {
		t.Fatalf("valid origin reported as bad: %v", err)
	}
}
