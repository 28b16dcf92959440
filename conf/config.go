package conf

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"time"
)

// 配置加载（API密钥等）

type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

type Okx struct {
	ApiKey    string `yaml:"apiKey"`
	SecretKey string `yaml:"secretKey"`
	Password  string `yaml:"password"`
	Simulated bool   `yaml:"simulated"`
}

type Db struct {
	DbName   string `yaml:"dbname"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MonitorConfig 仓位监控循环的调度配置
type MonitorConfig struct {
	Interval     time.Duration `yaml:"interval"`      // 巡检间隔，默认30s
	PriceTimeout time.Duration `yaml:"price-timeout"` // 单次行情请求超时，默认3s
	OrderTimeout time.Duration `yaml:"order-timeout"` // 下单/平仓请求超时，默认5s
	RulesTTL     time.Duration `yaml:"rules-ttl"`     // 交易规则缓存有效期，默认12h
}

type LogConfig struct {
	Level      string `yaml:"level"`
	FileName   string `yaml:"file-name"`
	TimeFormat string `yaml:"time-format"`
	MaxSize    int    `yaml:"max-size"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAge     int    `yaml:"max-age"`
	Compress   bool   `yaml:"compress"`
	LocalTime  bool   `yaml:"local-time"`
	Console    bool   `yaml:"console"`
}

// RedisConfig is used to configure redis
type RedisConfig struct {
	Addr         string `yaml:"address"`
	Password     string `yaml:"password"`
	Db           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool-size"`
	MinIdleConns int    `yaml:"min-idle-conns"`
	IdleTimeout  int    `yaml:"idle-timeout"`
}

type JwtConfig struct {
	Secret string `yaml:"secret"`
	JwtTtl int64  `yaml:"ttl"` // token 有效期（秒）
}

type KafkaConfig struct {
	Broker string `yaml:"broker"`
}

type Config struct {
	AppName      string `yaml:"app_name"`
	Listen       string `yaml:"listen"`
	Mode         string `yaml:"mode"`
	Language     string `yaml:"language"`
	MaxPingCount int    `yaml:"max-ping-count"`
	// 交易所凭证落库时使用的对称加密密钥（32字节 hex）
	CredentialKey string `yaml:"credential_key"`

	Webhook WebhookConfig `yaml:"webhook"`
	Okx     `yaml:"okx"`
	Db      `yaml:"database"`
	Monitor MonitorConfig `yaml:"monitor"`
	Log     LogConfig     `yaml:"log"`
	Jwt     JwtConfig     `yaml:"jwt"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
}

var AppConfig Config

func LoadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("Read config file error %w", err)
	}
	if err := yaml.Unmarshal(data, &AppConfig); err != nil {
		return fmt.Errorf("Unmarshal config yaml error: %w", err)
	}
	AppConfig.Monitor.applyDefaults()
	return nil
}

func (m *MonitorConfig) applyDefaults() {
	if m.Interval <= 0 {
		m.Interval = 30 * time.Second
	}
	if m.PriceTimeout <= 0 {
		m.PriceTimeout = 3 * time.Second
	}
	if m.OrderTimeout <= 0 {
		m.OrderTimeout = 5 * time.Second
	}
	if m.RulesTTL <= 0 {
		m.RulesTTL = 12 * time.Hour
	}
}
