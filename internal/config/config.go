// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"kb-chatbot-go/internal/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	Chat          ChatConfig          `mapstructure:"chat"`
	Session       SessionConfig       `mapstructure:"session"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KnowledgeBaseConfig 描述知识库来源。
// Source 支持 csv/xlsx 文件路径、sqlite://、mysql:// 与 minio:// 形式。
type KnowledgeBaseConfig struct {
	Source string `mapstructure:"source"`
	Watch  bool   `mapstructure:"watch"`
}

// ChatConfig 存储对话策略相关的配置。
type ChatConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	ResetClearsName  bool    `mapstructure:"reset_clears_name"`
	Greeting         string  `mapstructure:"greeting"`
	Fallback         string  `mapstructure:"fallback"`
}

// SessionConfig 决定会话状态存放在内存还是 Redis。
type SessionConfig struct {
	Store    string `mapstructure:"store"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储会话令牌相关的配置。
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// MinIOConfig 存储 MinIO 对象存储的配置，仅在知识库来源为 minio:// 时使用。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// MetricsConfig 存储 Prometheus 指标相关的配置。
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AdminConfig 存储运维接口（如知识库重新加载）使用的访问令牌。
// Token 为空时这些接口一律拒绝访问。
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// placeholderSecret 是示例配置里常见的占位密钥，不允许直接用于签发 token。
const placeholderSecret = "change-me"

var serverModes = map[string]bool{"debug": true, "release": true, "test": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("knowledge_base.source", "knowledge_base.csv")
	v.SetDefault("chat.default_threshold", model.DefaultThreshold)
	v.SetDefault("chat.greeting", "Hi! I'm a tiny chatbot. Ask me anything about this demo project.")
	v.SetDefault("chat.fallback", "I'm still learning. Try asking me something found in my knowledge base or rephrase your question.")
	v.SetDefault("session.store", SessionStoreMemory)
	v.SetDefault("session.ttl_hours", 24)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("admin.token", "")
	v.SetDefault("metrics.path", "/metrics")
}

// Load 读取指定的 YAML 文件（可为空，仅使用默认值与环境变量）并做校验。
// 环境变量以 CHATBOT_ 为前缀，例如 CHATBOT_CHAT_DEFAULT_THRESHOLD。
func Load(configPath string) (Config, error) {
	// .env 是可选的，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 在启动时拒绝非法配置。
func (c Config) Validate() error {
	if !serverModes[c.Server.Mode] {
		return fmt.Errorf("server.mode: unsupported value %q (debug | release | test)", c.Server.Mode)
	}
	if err := model.ValidateThreshold(c.Chat.DefaultThreshold); err != nil {
		return fmt.Errorf("chat.default_threshold: %w", err)
	}
	switch c.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("session.store: unsupported value %q", c.Session.Store)
	}
	if strings.TrimSpace(c.KnowledgeBase.Source) == "" {
		return fmt.Errorf("knowledge_base.source must not be empty")
	}
	if c.JWT.Secret == placeholderSecret {
		return fmt.Errorf("jwt.secret: placeholder %q must be replaced or left empty", placeholderSecret)
	}
	return nil
}

// Init 初始化配置加载，解析到全局 Conf 变量中，失败时 panic。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = cfg
}
