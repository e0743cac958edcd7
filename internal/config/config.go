package config

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	MySQL     DatabaseConfig  `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Snowflake SnowflakeConfig `mapstructure:"snowflake"`
	Comment   CommentConfig   `mapstructure:"comment"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name string `mapstructure:"name"`
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey           string `mapstructure:"secret_key"`
	AccessExpireSeconds int    `mapstructure:"access_expire_seconds"`
	Issuer              string `mapstructure:"issuer"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// SnowflakeConfig 评论ID生成配置
type SnowflakeConfig struct {
	Epoch string `mapstructure:"epoch"` // 起始时间，格式："2006-01-02"
	Node  int64  `mapstructure:"node"`  // 节点ID (0-1023)
}

// CommentConfig 影评评论配置
type CommentConfig struct {
	DefaultPageSize    int    `mapstructure:"default_page_size"`
	MaxPageSize        int    `mapstructure:"max_page_size"`
	DeletePolicy       string `mapstructure:"delete_policy"` // cascade | tombstone
	TombstoneContent   string `mapstructure:"tombstone_content"`
	SensitiveWordsFile string `mapstructure:"sensitive_words_file"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	BloomCapacity    uint    `mapstructure:"bloom_capacity"`
	BloomErrorRate   float64 `mapstructure:"bloom_error_rate"`
	BloomRebuildSpec string  `mapstructure:"bloom_rebuild_spec"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
	// 配置Viper实例
	viperInstance *viper.Viper
	configMu      sync.RWMutex
)

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "movie-review-api")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.port", 8080)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)
	v.SetDefault("jwt.access_expire_seconds", 7200)
	v.SetDefault("jwt.issuer", "movie-review-api")
	v.SetDefault("snowflake.epoch", "2024-01-01")
	v.SetDefault("snowflake.node", 1)
	v.SetDefault("comment.default_page_size", 10)
	v.SetDefault("comment.max_page_size", 100)
	v.SetDefault("comment.delete_policy", "cascade")
	v.SetDefault("comment.tombstone_content", "This comment has been deleted.")
	v.SetDefault("cache.bloom_capacity", 1000000)
	v.SetDefault("cache.bloom_error_rate", 0.001)
	v.SetDefault("cache.bloom_rebuild_spec", "0 */5 * * * *")
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Comment.DefaultPageSize < 1 {
		return fmt.Errorf("comment.default_page_size 必须大于0，当前为 %d", c.Comment.DefaultPageSize)
	}
	if c.Comment.MaxPageSize < c.Comment.DefaultPageSize {
		return fmt.Errorf("comment.max_page_size 不能小于 default_page_size，当前为 %d", c.Comment.MaxPageSize)
	}
	return nil
}

// Init 初始化配置
func Init(configPath string) error {
	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	GlobalConfig = &config
	viperInstance = v
	configMu.Unlock()
	return nil
}

// Watch 监听配置文件变化，重新解析后回调
func Watch(onChange func(*Config)) {
	configMu.RLock()
	v := viperInstance
	configMu.RUnlock()
	if v == nil {
		return
	}

	v.OnConfigChange(func(in fsnotify.Event) {
		log.Printf("配置文件发生变化: %s", in.Name)
		var config Config
		if err := v.Unmarshal(&config); err != nil {
			log.Printf("重新解析配置文件失败: %v", err)
			return
		}
		if err := config.Validate(); err != nil {
			log.Printf("忽略无效的配置: %v", err)
			return
		}
		configMu.Lock()
		GlobalConfig = &config
		configMu.Unlock()
		if onChange != nil {
			onChange(&config)
		}
	})
	v.WatchConfig()
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return GlobalConfig
}
