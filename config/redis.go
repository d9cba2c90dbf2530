package config

// RedisConfig 包含连接 Redis 所需的配置
type RedisConfig struct {
	Address  string `mapstructure:"address" json:"address" yaml:"address"`    // 地址，例如 "localhost:6379"
	Password string `mapstructure:"password" json:"password" yaml:"password"` // 密码，未设置时为空
	DB       int    `mapstructure:"db" json:"db" yaml:"db"`                   // 使用的逻辑库编号
	PoolSize int    `mapstructure:"pool_size" json:"pool_size" yaml:"pool_size"`
}

// FeedCacheConfig 信息流/详情缓存相关配置
type FeedCacheConfig struct {
	// FirstPageTTLSeconds 信息流首页缓存的过期时间（秒）。
	// - 首页缓存会在任意写操作后被主动失效，TTL 仅作为兜底。
	FirstPageTTLSeconds int `mapstructure:"firstPageTTLSeconds" json:"firstPageTTLSeconds" yaml:"firstPageTTLSeconds"`

	// DetailTTLSeconds 帖子详情缓存的过期时间（秒）。
	DetailTTLSeconds int `mapstructure:"detailTTLSeconds" json:"detailTTLSeconds" yaml:"detailTTLSeconds"`
}
