package config

import "github.com/Xushengqwer/go-common/config"

type ThreadConfig struct {
	ZapConfig           config.ZapConfig     `mapstructure:"zapConfig" json:"zapConfig" yaml:"zapConfig"`
	GormLogConfig       config.GormLogConfig `mapstructure:"gormLogConfig" json:"gormLogConfig" yaml:"gormLogConfig"`
	ServerConfig        config.ServerConfig  `mapstructure:"serverConfig" json:"serverConfig" yaml:"serverConfig"`
	TracerConfig        config.TracerConfig  `mapstructure:"tracerConfig" json:"tracerConfig" yaml:"tracerConfig"`
	MySQLConfig         MySQLConfig          `mapstructure:"mysqlConfig" json:"mysqlConfig" yaml:"mysqlConfig"`
	RedisConfig         RedisConfig          `mapstructure:"redisConfig" json:"redisConfig" yaml:"redisConfig"`
	KafkaConfig         KafkaConfig          `mapstructure:"kafkaConfig" json:"kafkaConfig" yaml:"kafkaConfig"`
	FeedCacheConfig     FeedCacheConfig      `mapstructure:"feedCacheConfig" json:"feedCacheConfig" yaml:"feedCacheConfig"`
	ReplyCountSync      ReplyCountSyncConfig `mapstructure:"replyCountSyncConfig" json:"replyCountSyncConfig" yaml:"replyCountSyncConfig"`
	COSConfig           COSConfig            `mapstructure:"postImagesCosConfig" json:"postImagesCosConfig" yaml:"postImagesCosConfig"`
}
