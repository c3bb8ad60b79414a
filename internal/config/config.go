package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	AI         AIConfig
	YouTube    YouTubeConfig    `mapstructure:"youtube"`
	Unsplash   UnsplashConfig   `mapstructure:"unsplash"`
	Generation GenerationConfig `mapstructure:"generation"`
	Storage    StorageConfig
	Tracing    TracingConfig   `mapstructure:"tracing"`
	CORS       CORSConfig      `mapstructure:"cors"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AIConfig 大模型文本生成服务配置（OpenAI 兼容接口）
type AIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// YouTubeConfig 视频搜索服务配置
type YouTubeConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// UnsplashConfig 图片搜索服务配置
type UnsplashConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	AccessKey string `mapstructure:"access_key"`
}

// GenerationConfig 课程生成管线配置
type GenerationConfig struct {
	ChapterConcurrency int    `mapstructure:"chapter_concurrency"` // 单元内章节充实并发上限
	DefaultVideoURL    string `mapstructure:"default_video_url"`   // 视频查找失败时的兜底链接
	DefaultImageURL    string `mapstructure:"default_image_url"`   // 图片查找失败时的兜底封面
	ArchiveImages      bool   `mapstructure:"archive_images"`      // 是否把课程封面转存到对象存储
	LockTTLMinutes     int    `mapstructure:"lock_ttl_minutes"`    // 同课程生成锁的过期时间
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	BaseURL       string `mapstructure:"base_url"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("COURSE_GEN")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 敏感信息允许环境变量覆盖
	if v := os.Getenv("COURSE_GEN_AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}
	if v := os.Getenv("COURSE_GEN_YOUTUBE_API_KEY"); v != "" {
		cfg.YouTube.APIKey = v
	}
	if v := os.Getenv("COURSE_GEN_UNSPLASH_ACCESS_KEY"); v != "" {
		cfg.Unsplash.AccessKey = v
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.parsetime", true)

	viper.SetDefault("ai.base_url", "https://api.openai.com/v1")
	viper.SetDefault("ai.model", "gpt-3.5-turbo")
	viper.SetDefault("ai.max_tokens", 2048)

	viper.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	viper.SetDefault("unsplash.base_url", "https://api.unsplash.com")

	viper.SetDefault("generation.chapter_concurrency", 3)
	viper.SetDefault("generation.default_video_url", "https://www.youtube.com/watch?v=rfscVS0vtbw")
	viper.SetDefault("generation.default_image_url", "https://images.unsplash.com/photo-1516979187457-637abb4f9353")
	viper.SetDefault("generation.archive_images", false)
	viper.SetDefault("generation.lock_ttl_minutes", 30)

	viper.SetDefault("rate_limit.max_requests", 1000)
	viper.SetDefault("rate_limit.window_minutes", 1)
}
