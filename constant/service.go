package constant

// 服务元信息与后台任务调度常量 (导出)
const (
	// ServiceName 服务名称，用于链路追踪与日志标识。
	ServiceName = "thread_service"

	// ServiceVersion 服务版本号。
	ServiceVersion = "1.0.0"

	// ReplyCountSyncCronSpec 回复数对账任务的 cron 表达式。
	// - 回复数在创建回复的事务里增量维护，软删除不回减；
	//   该任务定期以 COUNT(子帖) 为准修复可能的漂移。
	ReplyCountSyncCronSpec = "*/30 * * * *"

	// COSObjectKeyPrefixPostImages 帖子图片在 COS 中的对象键前缀。
	COSObjectKeyPrefixPostImages = "threads/images/"
)
