package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"astock/pkg/cache"
	"astock/pkg/logger"
	"astock/pkg/provider/decorators"
)

// Config 主配置结构
type Config struct {
	// 下载配置
	Download DownloadConfig `mapstructure:"download"`

	// 提供商配置
	Provider ProviderConfig `mapstructure:"provider"`

	// 存储配置
	Storage StorageConfig `mapstructure:"storage"`

	// 图表配置
	Chart ChartConfig `mapstructure:"chart"`

	// 缓存配置
	Cache CacheConfig `mapstructure:"cache"`

	// 日志配置
	Logger logger.Config `mapstructure:"logger"`
}

// DownloadConfig 历史数据下载配置
type DownloadConfig struct {
	Start      string        `mapstructure:"start"`       // 起始日期 (20220101)
	End        string        `mapstructure:"end"`         // 结束日期，留空取当日
	Period     string        `mapstructure:"period"`      // 周期 (daily, weekly, monthly)
	Adjust     string        `mapstructure:"adjust"`      // 复权方式 (qfq, hfq, 空为不复权)
	MaxWorkers int           `mapstructure:"max_workers"` // 并发下载协程数
	ListTTL    time.Duration `mapstructure:"list_ttl"`    // 股票列表缓存时长
}

// ProviderConfig 数据提供商配置
type ProviderConfig struct {
	Primary    string        `mapstructure:"primary"`     // 主数据源 ("eastmoney")
	Fallback   string        `mapstructure:"fallback"`    // 备用数据源 ("sina"，留空禁用)
	Timeout    time.Duration `mapstructure:"timeout"`     // 请求超时时间
	MaxRetries int           `mapstructure:"max_retries"` // 最大重试次数
	RateLimit  time.Duration `mapstructure:"rate_limit"`  // 请求间隔限制

	CircuitBreaker decorators.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DataDir string       `mapstructure:"data_dir"` // CSV文件目录
	Influx  InfluxConfig `mapstructure:"influx"`
}

// InfluxConfig InfluxDB写入配置，Enabled为false时不连接
type InfluxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

// ChartConfig 图表输出配置
type ChartConfig struct {
	OutputDir string `mapstructure:"output_dir"` // HTML输出目录
	MAWindows []int  `mapstructure:"ma_windows"` // 均线窗口
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Backend string            `mapstructure:"backend"` // memory 或 redis
	Redis   cache.RedisConfig `mapstructure:"redis"`
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Download: DownloadConfig{
			Start:      "20220101",
			Period:     "daily",
			Adjust:     "qfq",
			MaxWorkers: 10,
			ListTTL:    24 * time.Hour,
		},
		Provider: ProviderConfig{
			Primary:    "eastmoney",
			Fallback:   "sina",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
			RateLimit:  200 * time.Millisecond,
			CircuitBreaker: decorators.CircuitBreakerConfig{
				Enabled:     true,
				ReadyToTrip: 5,
				Timeout:     30 * time.Second,
				MaxRequests: 1,
			},
		},
		Storage: StorageConfig{
			DataDir: "data/stocks",
			Influx: InfluxConfig{
				Enabled: false,
				URL:     "http://localhost:8086",
				Org:     "astock",
				Bucket:  "stock_daily",
			},
		},
		Chart: ChartConfig{
			OutputDir: "data/charts",
			MAWindows: []int{5, 10, 20},
		},
		Cache: CacheConfig{
			Backend: "memory",
			Redis: cache.RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "astock",
			},
		},
		Logger: logger.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load 从YAML文件加载配置，缺失项用默认值补齐
// path为空时依次查找当前目录与config/下的config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	cfg := Default()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Download.Period {
	case "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("无效的周期: %s", c.Download.Period)
	}

	switch c.Download.Adjust {
	case "", "qfq", "hfq":
	default:
		return fmt.Errorf("无效的复权方式: %s", c.Download.Adjust)
	}

	if c.Download.MaxWorkers <= 0 {
		return errors.New("max_workers must be positive")
	}

	if c.Provider.Primary == "" {
		return errors.New("provider primary cannot be empty")
	}

	if c.Provider.Timeout <= 0 {
		return errors.New("provider timeout must be positive")
	}

	if c.Provider.MaxRetries < 0 {
		return errors.New("provider max_retries cannot be negative")
	}

	if c.Provider.RateLimit < 0 {
		return errors.New("provider rate_limit cannot be negative")
	}

	if c.Storage.DataDir == "" {
		return errors.New("storage data_dir cannot be empty")
	}

	if c.Storage.Influx.Enabled {
		if c.Storage.Influx.URL == "" || c.Storage.Influx.Token == "" {
			return errors.New("influx enabled requires url and token")
		}
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "redis":
	default:
		return fmt.Errorf("无效的缓存后端: %s", c.Cache.Backend)
	}

	return nil
}

// SetDateRange 设置下载日期范围
func (c *Config) SetDateRange(start, end string) *Config {
	c.Download.Start = start
	c.Download.End = end
	return c
}

// SetMaxWorkers 设置并发下载协程数
func (c *Config) SetMaxWorkers(n int) *Config {
	c.Download.MaxWorkers = n
	return c
}

// SetRateLimit 设置请求频率限制
func (c *Config) SetRateLimit(limit time.Duration) *Config {
	c.Provider.RateLimit = limit
	return c
}

// SetLogLevel 设置日志级别
func (c *Config) SetLogLevel(level string) *Config {
	c.Logger.Level = level
	return c
}
