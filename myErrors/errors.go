package myErrors

import "errors"

// ErrCacheMiss 表示在缓存层未找到对应的键值
var ErrCacheMiss = errors.New("cache: key not found (miss)")

// 内容校验相关错误。
// - 内容长度与图片数量的校验独立于结构校验，各自返回可区分的错误。
var (
	// ErrContentTooShort 帖子内容长度不足最小值
	ErrContentTooShort = errors.New("帖子内容至少需要 3 个字符")

	// ErrContentTooLong 帖子内容长度超出最大值
	ErrContentTooLong = errors.New("帖子内容不能超过 500 个字符")

	// ErrTooManyImages 帖子图片数量超出上限
	ErrTooManyImages = errors.New("最多只能上传 3 张图片")
)

// ErrEditWindowExpired 表示帖子编辑请求超出了允许的编辑时间窗口
var ErrEditWindowExpired = errors.New("编辑时限 (10 分钟) 已过期")

// ErrPostDeleted 表示目标帖子已被软删除（墓碑化），不允许继续写操作
var ErrPostDeleted = errors.New("帖子已被删除")

// ErrUnauthorized 表示请求者不是资源作者，无权执行该写操作
var ErrUnauthorized = errors.New("unauthorized")
