// Package store 提供 core.Store 的实现：本地文件、内存、Redis。
package store

import (
	"context"
	"fmt"

	"github.com/rushteam/attrition/core"
)

// 存储后端类型
const (
	TypeFile   = "file"
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Config 存储配置
type Config struct {
	Type  string      `yaml:"type" json:"type" validate:"required,oneof=file memory redis"`
	Dir   string      `yaml:"dir" json:"dir" validate:"required_if=Type file"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// Open 按配置创建存储
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Type {
	case TypeFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = "models"
		}
		return NewFileStore(dir)
	case TypeMemory:
		return NewMemoryStore(), nil
	case TypeRedis:
		if cfg.Redis.Addr == "" {
			return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "redis store requires an address")
		}
		return NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported, fmt.Sprintf("unknown store type %q", cfg.Type))
	}
}
