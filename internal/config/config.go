package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 POPQUERY_DB_PATH
const EnvPrefix = "POPQUERY"

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string // 为空时不校验预处理接口

	// 网格默认值
	Rows      int
	Cols      int
	Variant   string
	Cutoff    int // fork-join 顺序阈值
	Workers   int // 0 表示 GOMAXPROCS
	CacheSize int // 查询缓存条目数，0 表示关闭

	RateLimit int // 每个 IP 每分钟请求数，0 表示关闭

	LogLevel string
	LogPath  string
	LogMode  string
	DevMode  bool

	// 数据来源：CSV 文件或数据库中的数据集
	DataFile string
	Dataset  string
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", ":8080")
	v.SetDefault("db_path", "./data/census.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("rows", 100)
	v.SetDefault("cols", 100)
	v.SetDefault("variant", "v4")
	v.SetDefault("cutoff", 1000)
	v.SetDefault("workers", 0)
	v.SetDefault("cache_size", 1024)
	v.SetDefault("rate_limit", 600)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_path", "stderr")
	v.SetDefault("log_mode", "append")
	v.SetDefault("dev", false)
	v.SetDefault("data", "")
	v.SetDefault("dataset", "")
}

// New returns a viper instance reading POPQUERY_* environment variables on
// top of the defaults.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load 加载配置
func Load(v *viper.Viper) (*Config, error) {
	// The file named by "config" is read first. Flags bound to v and
	// environment variables take precedence over it.
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: problem reading configuration file: %w", err)
		}
	}

	cfg := &Config{
		Port:      v.GetString("port"),
		DBPath:    v.GetString("db_path"),
		JWTSecret: v.GetString("jwt_secret"),
		Rows:      v.GetInt("rows"),
		Cols:      v.GetInt("cols"),
		Variant:   v.GetString("variant"),
		Cutoff:    v.GetInt("cutoff"),
		Workers:   v.GetInt("workers"),
		CacheSize: v.GetInt("cache_size"),
		RateLimit: v.GetInt("rate_limit"),
		LogLevel:  v.GetString("log_level"),
		LogPath:   v.GetString("log_path"),
		LogMode:   v.GetString("log_mode"),
		DevMode:   v.GetBool("dev"),
		DataFile:  v.GetString("data"),
		Dataset:   v.GetString("dataset"),
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later
func (c *Config) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("config: rows and cols must be positive (got %d, %d)", c.Rows, c.Cols)
	}
	if c.Cutoff <= 0 {
		return fmt.Errorf("config: cutoff must be positive (got %d)", c.Cutoff)
	}
	if c.Workers < 0 || c.CacheSize < 0 || c.RateLimit < 0 {
		return fmt.Errorf("config: workers, cache_size and rate_limit must not be negative")
	}
	return nil
}
