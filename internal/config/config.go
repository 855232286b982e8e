package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DeviceConfig 接收机通道配置
// Path 支持串口设备路径（/dev/ttyACM0）或 tcp://host:port 网络转发地址。
type DeviceConfig struct {
	Path        string        `mapstructure:"path"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
	DialTimeout time.Duration `mapstructure:"dialTimeout"`
}

// ExchangeConfig 请求/应答交换配置
type ExchangeConfig struct {
	MaxAttempts  int           `mapstructure:"maxAttempts"`
	ReadBudget   int           `mapstructure:"readBudget"`
	FrameTimeout time.Duration `mapstructure:"frameTimeout"`
	SendRate     int           `mapstructure:"sendRate"`
	SendBurst    int           `mapstructure:"sendBurst"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// Config 顶层配置结构
type Config struct {
	Device   DeviceConfig   `mapstructure:"device"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 GNSSCFG_CONFIG 读取；否则回退到 configs/example.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("GNSSCFG_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	// 默认值
	setDefaults(v)

	// 环境变量覆盖：前缀 GNSSCFG_，并将点号替换为下划线
	v.SetEnvPrefix("GNSSCFG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 允许缺少配置文件，依赖默认值与环境变量；显式指定的文件必须存在
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("device.path", "/dev/ttyACM0")
	v.SetDefault("device.baud", 9600)
	v.SetDefault("device.readTimeout", "100ms")
	v.SetDefault("device.dialTimeout", "5s")

	v.SetDefault("exchange.maxAttempts", 5)
	v.SetDefault("exchange.readBudget", 4096)
	v.SetDefault("exchange.frameTimeout", "2s")
	v.SetDefault("exchange.sendRate", 5)
	v.SetDefault("exchange.sendBurst", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 14)
	v.SetDefault("logging.file.compress", false)
}
