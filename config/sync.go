package config

// ReplyCountSyncConfig 回复数对账任务相关的配置
type ReplyCountSyncConfig struct {
	// BatchSize 是把按父帖聚合出的回复数写回 MySQL 时，单条 UPDATE 语句覆盖的父帖数量。
	// 例如需要修复 20,000 个父帖的计数，BatchSize 为 500 时会拆成 40 个批次，
	// 每个批次通过一次 CASE WHEN 批量更新完成。
	BatchSize int `mapstructure:"batchSize" json:"batchSize" yaml:"batchSize"`

	// ConcurrencyLevel 是执行批量写回时并发处理批次的 worker (goroutine) 数量。
	// 该参数决定同时向数据库发起更新请求的并发连接数。
	ConcurrencyLevel int `mapstructure:"concurrencyLevel" json:"concurrencyLevel" yaml:"concurrencyLevel"`
}
