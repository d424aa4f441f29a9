package logger

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestLoadOptionsFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "LOG_ENCODING", "LOG_FILE", "LOG_MAX_SIZE", "LOG_COMPRESS", "LOG_CONSOLE"} {
		t.Setenv(key, "")
	}

	opts := LoadOptionsFromEnv()
	if opts.Level != "info" || opts.Encoding != "json" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
	if opts.FilePath != filepath.Join("logs", "engine.log") {
		t.Fatalf("unexpected default file path %s", opts.FilePath)
	}
	if !opts.Console || !opts.Compress {
		t.Fatalf("expected console and compress enabled: %+v", opts)
	}
}

func TestLoadOptionsFromEnvDisableFile(t *testing.T) {
	t.Setenv("LOG_FILE", "-")
	t.Setenv("LOG_MAX_SIZE", "bogus")

	opts := LoadOptionsFromEnv()
	if opts.FilePath != "" {
		t.Fatalf("expected file output disabled, got %s", opts.FilePath)
	}
	if opts.MaxSize != 20 {
		t.Fatalf("invalid size should fall back to 20, got %d", opts.MaxSize)
	}
}

func TestBuildRejectsInvalidLevel(t *testing.T) {
	if _, err := Build(Options{Level: "loud", Console: true}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestBuildRequiresOutput(t *testing.T) {
	if _, err := Build(Options{Level: "info"}); err == nil {
		t.Fatalf("expected error when no output configured")
	}
}

func TestBuildWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "engine.log")
	l, err := Build(Options{Level: "debug", Encoding: "json", FilePath: path, MaxSize: 1})
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	l.Info("hello")
	_ = l.Sync()
	if matches, _ := filepath.Glob(path); len(matches) != 1 {
		t.Fatalf("expected log file at %s", path)
	}
}

func TestReplaceRestoresPrevious(t *testing.T) {
	nop := zap.NewNop()
	restore := Replace(nop)
	if L() != nop {
		t.Fatalf("expected replaced logger")
	}
	restore()
}
