package constant

// Redis Key 相关常量 (导出)
const (
	// FeedFirstPageKey 是主信息流首页缓存的 Key 名称。
	// 仅缓存“无游标 + 默认页大小”的首页查询结果，后续页直接查库。
	// 示例值: 序列化后的 vo.FeedPageVO JSON
	// Redis 类型: String
	FeedFirstPageKey = "feed:first_page"

	// PostDetailCacheKeyPrefix 是帖子详情缓存的 Key 前缀。
	// 每个帖子详情会有一个对应的 Key。
	// 示例 Key: "post_detail:123" (其中 123 是 postID)
	// Redis 类型: String (存储 JSON 序列化后的详情数据)
	PostDetailCacheKeyPrefix = "post_detail:"
)
