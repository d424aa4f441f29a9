package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ModeLocal 表示使用本地 SQLite 运行，适合开发与演示。
	ModeLocal = "local"
	// ModeOnline 表示连接 MySQL 的默认在线模式。
	ModeOnline = "online"

	defaultLocalDBRelPath = "data/adops-local.db"
)

// RuntimeFlags 汇总运行模式与本地数据库位置。
type RuntimeFlags struct {
	Mode  string
	Local LocalRuntime
}

// LocalRuntime 描述本地模式下的 SQLite 配置。
type LocalRuntime struct {
	DBPath string
}

// IsLocal 判断是否运行在本地模式。
func (f RuntimeFlags) IsLocal() bool {
	return strings.EqualFold(f.Mode, ModeLocal)
}

// LoadRuntimeFlags 读取 APP_MODE 与 LOCAL_SQLITE_PATH。
func LoadRuntimeFlags() RuntimeFlags {
	LoadEnvFiles()

	mode := strings.ToLower(strings.TrimSpace(os.Getenv("APP_MODE")))
	if mode == "" {
		mode = ModeOnline
	}

	local := LocalRuntime{DBPath: normalisePath(defaultLocalDBRelPath)}
	if rawPath := strings.TrimSpace(os.Getenv("LOCAL_SQLITE_PATH")); rawPath != "" {
		local.DBPath = normalisePath(rawPath)
	}

	return RuntimeFlags{Mode: mode, Local: local}
}

// normalisePath 将路径展开为绝对路径，兼容 ~ 前缀与相对路径。
func normalisePath(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(home, strings.TrimPrefix(raw, "~"))
		}
	}
	if filepath.IsAbs(raw) {
		return raw
	}
	if abs, err := filepath.Abs(raw); err == nil {
		return abs
	}
	return raw
}
