/*
 * @Author: NEFU AB-IN
 * @Date: 2026-09-02 10:40:18
 * @FilePath: \adops-engine\backend\internal\infra\logger\logger.go
 * @LastEditTime: 2026-09-14 21:03:55
 */
package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// fileDisabled 作为 LOG_FILE 的取值时只输出到控制台。
const fileDisabled = "-"

var (
	globalLogger *zap.Logger
	mu           sync.Mutex
)

// Options 描述日志初始化时可配置的参数。
type Options struct {
	Level      string
	Encoding   string
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
	Console    bool
}

// Init 初始化全局日志记录器，重复调用直接返回已有实例。
func Init() (*zap.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		return globalLogger, nil
	}
	built, err := Build(LoadOptionsFromEnv())
	if err != nil {
		return nil, err
	}
	globalLogger = built
	return globalLogger, nil
}

// Replace 替换全局 logger，主要给测试与命令行工具使用，返回恢复函数。
func Replace(l *zap.Logger) func() {
	mu.Lock()
	defer mu.Unlock()

	prev := globalLogger
	globalLogger = l
	return func() {
		mu.Lock()
		defer mu.Unlock()
		globalLogger = prev
	}
}

// L 返回全局 zap.Logger，未初始化时自动初始化。
func L() *zap.Logger {
	mu.Lock()
	current := globalLogger
	mu.Unlock()
	if current != nil {
		return current
	}

	l, err := Init()
	if err != nil {
		panic(fmt.Sprintf("logger init failed: %v", err))
	}
	return l
}

// S 返回 SugaredLogger，handler/service 中常用 Infow/Warnw。
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// Component 返回带 component 字段的 SugaredLogger。
func Component(name string) *zap.SugaredLogger {
	return S().With("component", name)
}

// Sync 刷新缓冲区，通常在进程退出前调用。
func Sync() {
	mu.Lock()
	current := globalLogger
	mu.Unlock()
	if current != nil {
		_ = current.Sync()
	}
}

// LoadOptionsFromEnv 解析 LOG_* 环境变量，缺失时使用默认值。
func LoadOptionsFromEnv() Options {
	opts := Options{
		Level:      strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		Encoding:   strings.ToLower(strings.TrimSpace(os.Getenv("LOG_ENCODING"))),
		FilePath:   strings.TrimSpace(os.Getenv("LOG_FILE")),
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     15,
		Compress:   true,
		Console:    true,
	}

	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.Encoding == "" {
		opts.Encoding = "json"
	}
	switch opts.FilePath {
	case "":
		opts.FilePath = filepath.Join("logs", "engine.log")
	case fileDisabled:
		opts.FilePath = ""
	}

	opts.MaxSize = positiveIntEnv("LOG_MAX_SIZE", opts.MaxSize)
	opts.MaxBackups = positiveIntEnv("LOG_MAX_BACKUPS", opts.MaxBackups)
	opts.MaxAge = positiveIntEnv("LOG_MAX_AGE", opts.MaxAge)
	if val := strings.TrimSpace(os.Getenv("LOG_COMPRESS")); val != "" {
		opts.Compress = val == "1" || strings.EqualFold(val, "true")
	}
	if val := strings.TrimSpace(os.Getenv("LOG_CONSOLE")); val != "" {
		opts.Console = !(val == "0" || strings.EqualFold(val, "false"))
	}

	return opts
}

// Build 根据 Options 组装 zap.Logger：滚动文件输出 + 彩色控制台输出。
func Build(opts Options) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(opts.Level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder

	cores := make([]zapcore.Core, 0, 2)

	if opts.FilePath != "" {
		if err := ensureDir(filepath.Dir(opts.FilePath)); err != nil {
			return nil, fmt.Errorf("logger create dir: %w", err)
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAge,
			Compress:   opts.Compress,
		})

		var fileEncoder zapcore.Encoder
		if opts.Encoding == "console" {
			fileEncoder = zapcore.NewConsoleEncoder(encoderCfg)
		} else {
			fileEncoder = zapcore.NewJSONEncoder(encoderCfg)
		}
		cores = append(cores, zapcore.NewCore(fileEncoder, writer, lvl))
	}

	if opts.Console {
		consoleCfg := encoderCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}

	if len(cores) == 0 {
		return nil, errors.New("logger has no output: enable console or set LOG_FILE")
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func positiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
