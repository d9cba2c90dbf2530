package entities

import (
	"database/sql"
	"time"

	"github.com/Xushengqwer/go-common/models/entities"
	"github.com/Xushengqwer/go-common/models/enums"
)

// Post 帖子实体
// - 使用场景: 表示信息流与会话串中的一条帖子（根帖或回复）
// - 表名: posts (GORM 默认使用结构体名复数形式)
// - 软删除采用墓碑模式: deleted_at 置位后内容被替换为固定墓碑文案、图片清空，
//   但 ID、作者、时间戳与楼层位置保留，回复树结构不受影响。
type Post struct {
	entities.BaseModel // 嵌入自定义的 BaseModel ,包含 ID, CreatedAt, UpdatedAt, DeletedAt，支持软删除

	// 内容，3~500 字符的短文本
	// - 类型: varchar(512)，业务上限 500 字符，留少量余量存放墓碑文案
	// - GORM 标签: not null 表示非空
	Content string `gorm:"type:varchar(512);not null"`

	// 作者ID，关联用户服务中的用户，外键
	// - 类型: char(36)，用户ID为UUID格式（36个字符）
	AuthorID string `gorm:"type:char(36);not null;index"`

	// 作者用户名，存储作者的用户名
	// - 设计意图: 列表页直接展示作者信息，避免跨服务调用
	// - 注意: 该字段为冗余字段，数据来源于用户服务，更新时通过异步消息队列同步
	AuthorUsername string `gorm:"type:varchar(50);not null"`

	// 作者头像，存储作者头像的URL或路径
	// - 注意: 冗余字段，同上；用户注册时会有默认头像，因此字段不可为空
	AuthorAvatar string `gorm:"type:varchar(255);not null"`

	// 父帖ID，自引用外键；NULL 表示根帖，非 NULL 表示回复
	// - 一经写入不再变更（回复树形状不可变）
	ParentID *uint64 `gorm:"type:bigint unsigned;index"`

	// 直接回复数计数器
	// - 创建回复时在同一事务内对父帖原子自增；软删除不回减（墓碑仍占楼层）
	ReplyCount int64 `gorm:"type:bigint;default:0"`

	// 状态，枚举类型：0=待审核, 1=已发布(审核通过), 2=拒绝
	// - 审核由外部审核服务通过 Kafka 回写
	Status enums.Status `gorm:"type:int;default:0"`

	// 编辑时间，作者在编辑窗口内成功修改内容时置位
	EditedAt *time.Time `gorm:"type:datetime(3)"`

	// 审核原因，记录帖子审核（特别是拒绝时）的原因
	// - 类型: sql.NullString，可以为 NULL 的字符串，用于存储可能不存在的原因
	AuditReason sql.NullString `gorm:"type:varchar(255);comment:审核原因"`
}
