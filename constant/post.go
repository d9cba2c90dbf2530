package constant

import "time"

// 帖子内容与编辑相关的业务常量 (导出)
const (
	// PostContentMinLen 帖子内容的最小长度（字符数）。
	// - 校验在服务层独立于结构校验执行，低于该长度返回内容过短错误。
	PostContentMinLen = 3

	// PostContentMaxLen 帖子内容的最大长度（字符数）。
	PostContentMaxLen = 500

	// PostMaxImages 单个帖子允许携带的图片数量上限。
	PostMaxImages = 3

	// PostEditWindow 帖子发布后允许作者编辑内容的时间窗口。
	// - 从 CreatedAt 起算，超出窗口的编辑请求返回编辑超时错误。
	PostEditWindow = 10 * time.Minute

	// TombstoneContent 软删除后替换帖子内容的固定墓碑文案。
	// - 软删除保留帖子的 ID、作者、时间戳与楼层位置，仅替换内容并清空图片，
	//   以保证回复树结构不被破坏。
	TombstoneContent = "[该内容已被作者删除]"

	// DefaultPageSize 游标分页查询在未提供有效 pageSize 时使用的默认每页数量。
	DefaultPageSize = 10
)
