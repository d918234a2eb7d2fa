package config

import (
	"os"
	"strconv"
	"time"
)

// ValidTags 帖子标签白名单，写入校验和列表筛选共用同一份
var ValidTags = []string{"开发", "经分", "受理", "稽核", "其他"}

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Config 汇总所有环境配置，启动时构造一次后注入各 Handler
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   []byte
	JWTExpires  time.Duration
	BaseURL     string
	CORSOrigin  string
	UploadDir   string
	MaxFileSize int64 // 单个上传文件的字节上限
}

// Load 从环境变量读取配置，缺省值与本地开发对齐
func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   []byte(getEnv("JWT_SECRET", "secret_key_change_me")),
		JWTExpires:  7 * 24 * time.Hour,
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		CORSOrigin:  getEnv("FRONTEND_URL", "http://localhost:5173"),
		UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
		MaxFileSize: 5 * 1024 * 1024,
	}

	if v := os.Getenv("JWT_EXPIRES_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.JWTExpires = time.Duration(hours) * time.Hour
		}
	}
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size > 0 {
			cfg.MaxFileSize = size
		}
	}

	return cfg
}

// IsValidTag 检查标签是否在白名单内
func IsValidTag(tag string) bool {
	for _, t := range ValidTags {
		if t == tag {
			return true
		}
	}
	return false
}

// FilterTags 过滤掉不在白名单内的标签
func FilterTags(tags []string) []string {
	filtered := make([]string, 0, len(tags))
	for _, t := range tags {
		if IsValidTag(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
