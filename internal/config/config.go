package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Agent  AgentConfig
	Chat   ChatConfig
}

// Load 从环境变量加载配置。存储配置缺失是致命错误，
// 生成端配置缺失只会让服务退化为本地回退回复。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	storeCfg, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	agent, err := loadAgentConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Store:  storeCfg,
		Agent:  agent,
		Chat:   loadChatConfig(),
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig 描述远端集合存储的连接配置。
type StoreConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

func loadStoreConfig() (StoreConfig, error) {
	storeURL := strings.TrimSpace(os.Getenv("SUPABASE_URL"))
	apiKey := strings.TrimSpace(os.Getenv("SUPABASE_KEY"))
	if storeURL == "" || apiKey == "" {
		return StoreConfig{}, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be configured")
	}

	timeoutSeconds := 10
	if override, err := parseOptionalIntEnv("STORE_TIMEOUT"); err != nil {
		return StoreConfig{}, err
	} else if override != nil && *override > 0 {
		timeoutSeconds = *override
	}

	return StoreConfig{
		URL:     strings.TrimRight(storeURL, "/"),
		APIKey:  apiKey,
		Timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// AgentConfig 描述外部文本生成端点的配置。
type AgentConfig struct {
	APIKey      string
	AppID       string
	BaseURL     string
	Region      string
	Temperature *float64
	MaxTokens   *int
}

// Enabled 表示是否提供了必需的密钥与应用标识。
func (c AgentConfig) Enabled() bool {
	return c.APIKey != "" && c.AppID != ""
}

// NewChatModel 使用配置创建一个模型实例。
func (c AgentConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("agent credentials missing, provide ARK_API_KEY and ARK_APP_ID")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		Model:       c.AppID,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAgentConfig() (AgentConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AgentConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AgentConfig{}, err
	}

	return AgentConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AppID:       strings.TrimSpace(os.Getenv("ARK_APP_ID")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}, nil
}

// ChatConfig 描述对话生命周期相关的配置。
type ChatConfig struct {
	// DefaultUserID 在请求未携带 user_id 时使用（测试用户）。
	DefaultUserID string
}

func loadChatConfig() ChatConfig {
	return ChatConfig{
		DefaultUserID: getEnvOrDefault("DEFAULT_USER_ID", "a2431f9f-f48e-4225-b59e-c1a16cb590f2"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
