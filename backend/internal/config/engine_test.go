package config

import (
	"testing"
	"time"
)

func TestLoadEngineConfigDefaults(t *testing.T) {
	SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { SetEnvFileLoadingForTest(true) })

	for _, key := range []string{"SERVER_PORT", "EXPLORATION_RATE", "LEARNING_RATE", "LOOKBACK_DAYS", "TEXTGEN_PROVIDER", "AUTH_JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg := LoadEngineConfig()
	if cfg.Port != "9090" {
		t.Fatalf("expected default port 9090, got %s", cfg.Port)
	}
	if cfg.ExplorationRate != 0.2 || cfg.LearningRate != 0.1 {
		t.Fatalf("unexpected rates: %v/%v", cfg.ExplorationRate, cfg.LearningRate)
	}
	if cfg.LookbackDays != 30 {
		t.Fatalf("expected lookback 30, got %d", cfg.LookbackDays)
	}
	if cfg.TextGen.Provider != "deepseek" {
		t.Fatalf("expected deepseek provider, got %s", cfg.TextGen.Provider)
	}
	if cfg.Auth.Enabled() {
		t.Fatalf("auth should be disabled without secret")
	}
	if cfg.Limit.Window != time.Minute {
		t.Fatalf("expected one minute window, got %s", cfg.Limit.Window)
	}
}

func TestLoadEngineConfigFromEnv(t *testing.T) {
	SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { SetEnvFileLoadingForTest(true) })

	t.Setenv("SERVER_PORT", "8088")
	t.Setenv("EXPLORATION_RATE", "0.35")
	t.Setenv("LEARNING_RATE", "1.5")
	t.Setenv("TEXTGEN_PROVIDER", "OpenAI")
	t.Setenv("AUTH_JWT_SECRET", "secret")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := LoadEngineConfig()
	if cfg.Port != "8088" {
		t.Fatalf("expected port 8088, got %s", cfg.Port)
	}
	if cfg.ExplorationRate != 0.35 {
		t.Fatalf("expected exploration 0.35, got %v", cfg.ExplorationRate)
	}
	// 超出 [0,1] 的值回退到默认值。
	if cfg.LearningRate != 0.1 {
		t.Fatalf("expected learning rate fallback 0.1, got %v", cfg.LearningRate)
	}
	if cfg.TextGen.Provider != "openai" {
		t.Fatalf("expected lower-cased provider, got %s", cfg.TextGen.Provider)
	}
	if !cfg.Auth.Enabled() {
		t.Fatalf("expected auth enabled")
	}
	if cfg.Limit.Window != 30*time.Second {
		t.Fatalf("expected 30s window, got %s", cfg.Limit.Window)
	}
}

func TestLoadRuntimeFlags(t *testing.T) {
	SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { SetEnvFileLoadingForTest(true) })

	t.Setenv("APP_MODE", "LOCAL")
	t.Setenv("LOCAL_SQLITE_PATH", "/tmp/adops-test.db")

	flags := LoadRuntimeFlags()
	if !flags.IsLocal() {
		t.Fatalf("expected local mode, got %s", flags.Mode)
	}
	if flags.Local.DBPath != "/tmp/adops-test.db" {
		t.Fatalf("unexpected db path %s", flags.Local.DBPath)
	}
}

func TestLoadEngineConfigAllowedOrigins(t *testing.T) {
	SetEnvFileLoadingForTest(false)
	t.Cleanup(func() { SetEnvFileLoadingForTest(true) })

	t.Setenv("CORS_ALLOWED_ORIGINS", " https://ads.example.com, ,https://ops.example.com ")
	cfg := LoadEngineConfig()
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://ops.example.com" {
		t.Fatalf("unexpected origins %#v", cfg.AllowedOrigins)
	}
}
