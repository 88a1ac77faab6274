package feast

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config 在线记录源配置
type Config struct {
	Endpoint    string        `yaml:"endpoint" json:"endpoint" validate:"required"`
	Project     string        `yaml:"project" json:"project" validate:"required"`
	FeatureView string        `yaml:"feature_view" json:"feature_view" validate:"required"`
	EntityKey   string        `yaml:"entity_key" json:"entity_key"`
	Token       string        `yaml:"token" json:"token"`
	TLS         bool          `yaml:"tls" json:"tls"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// NewRecordSourceFromConfig 建立 gRPC 连接并创建记录源，调用方负责 Close 返回的客户端
func NewRecordSourceFromConfig(cfg Config) (*RecordSource, Client, error) {
	host, port, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}
	opts := []ClientOption{}
	if cfg.Timeout > 0 {
		opts = append(opts, WithTimeout(cfg.Timeout))
	}
	if cfg.Token != "" {
		opts = append(opts, WithToken(cfg.Token, cfg.TLS))
	}
	client, err := NewGrpcClient(host, port, cfg.Project, opts...)
	if err != nil {
		return nil, nil, err
	}
	return NewRecordSource(client, cfg.FeatureView, cfg.EntityKey, nil), client, nil
}

// parseEndpoint 解析 host:port，可带 grpc:// 前缀；没有端口时 port 为 0
func parseEndpoint(endpoint string) (string, int, error) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")
	host, portStr, found := strings.Cut(endpoint, ":")
	if host == "" {
		return "", 0, fmt.Errorf("invalid feast endpoint %q", endpoint)
	}
	if !found {
		return host, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid feast endpoint %q: %w", endpoint, err)
	}
	return host, port, nil
}
