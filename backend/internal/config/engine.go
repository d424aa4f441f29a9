package config

import (
	"strings"
	"time"
)

const (
	defaultServerPort         = "9090"
	defaultExplorationRate    = 0.2
	defaultLearningRate       = 0.1
	defaultLookbackDays       = 30
	defaultTextGenProvider    = "deepseek"
	defaultTextGenMaxTokens   = 800
	defaultTextGenTimeout     = 30 * time.Second
	defaultMetaGraphBaseURL   = "https://graph.facebook.com"
	defaultMetaGraphVersion   = "v19.0"
	defaultGenerateRateLimit  = 30
	defaultGenerateRateWindow = time.Minute
)

// EngineConfig 汇总优化引擎及其外部协作方的运行参数。
type EngineConfig struct {
	Port           string
	AllowedOrigins []string

	ExplorationRate float64
	LearningRate    float64
	LookbackDays    int

	TextGen TextGenConfig
	Meta    MetaConfig
	Auth    AuthConfig
	Limit   RateLimitConfig
}

// TextGenConfig 描述文本生成模型的接入方式。
type TextGenConfig struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// MetaConfig 描述 Meta Graph API 的访问入口。
type MetaConfig struct {
	BaseURL string
	Version string
}

// AuthConfig 为空密钥时表示不启用鉴权。
type AuthConfig struct {
	JWTSecret string
}

// Enabled 返回是否需要挂载 JWT 中间件。
func (a AuthConfig) Enabled() bool {
	return strings.TrimSpace(a.JWTSecret) != ""
}

// RateLimitConfig 控制生成类接口的限流阈值。
type RateLimitConfig struct {
	GeneratePerWindow int
	Window            time.Duration
}

// LoadEngineConfig 从环境变量构建 EngineConfig，缺失项使用默认值。
func LoadEngineConfig() EngineConfig {
	LoadEnvFiles()

	cfg := EngineConfig{
		Port:            envString("SERVER_PORT", defaultServerPort),
		AllowedOrigins:  envList("CORS_ALLOWED_ORIGINS"),
		ExplorationRate: clampRate(envFloat("EXPLORATION_RATE", defaultExplorationRate), defaultExplorationRate),
		LearningRate:    clampRate(envFloat("LEARNING_RATE", defaultLearningRate), defaultLearningRate),
		LookbackDays:    envInt("LOOKBACK_DAYS", defaultLookbackDays),
		TextGen: TextGenConfig{
			Provider:  strings.ToLower(envString("TEXTGEN_PROVIDER", defaultTextGenProvider)),
			APIKey:    envString("TEXTGEN_API_KEY", ""),
			BaseURL:   envString("TEXTGEN_BASE_URL", ""),
			Model:     envString("TEXTGEN_MODEL", ""),
			MaxTokens: envInt("TEXTGEN_MAX_TOKENS", defaultTextGenMaxTokens),
			Timeout:   envDuration("TEXTGEN_TIMEOUT", defaultTextGenTimeout),
		},
		Meta: MetaConfig{
			BaseURL: envString("META_GRAPH_BASE_URL", defaultMetaGraphBaseURL),
			Version: envString("META_GRAPH_VERSION", defaultMetaGraphVersion),
		},
		Auth: AuthConfig{
			JWTSecret: envString("AUTH_JWT_SECRET", ""),
		},
		Limit: RateLimitConfig{
			GeneratePerWindow: envInt("RATE_LIMIT_GENERATE_PER_MINUTE", defaultGenerateRateLimit),
			Window:            envDuration("RATE_LIMIT_WINDOW", defaultGenerateRateWindow),
		},
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaultLookbackDays
	}
	if cfg.TextGen.MaxTokens <= 0 {
		cfg.TextGen.MaxTokens = defaultTextGenMaxTokens
	}
	return cfg
}

func clampRate(value, fallback float64) float64 {
	if value < 0 || value > 1 {
		return fallback
	}
	return value
}
