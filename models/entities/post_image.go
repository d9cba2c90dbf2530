package entities

import "github.com/Xushengqwer/go-common/models/entities"

// PostImage 帖子图片实体
//   - 使用场景: 存储帖子携带的每一张独立图片（每帖最多 3 张，有序）。
//   - 表名: post_images (GORM 默认会使用蛇形复数形式)
//   - 关系: 与 Post 表为“多对一”关系，通过 PostID 外键字段关联到 posts 表的主键。
//   - 帖子被软删除（墓碑化）时，图片记录随之软删除，实现“图片清空”。
type PostImage struct {
	entities.BaseModel // 嵌入自定义的 BaseModel, 包含 ID, CreatedAt, UpdatedAt, DeletedAt 字段

	// 关联的帖子ID (外键，指向 Post 表的主键)
	// - index: 为此外键添加数据库索引，以优化“取某帖全部图片”的查询
	PostID uint64 `gorm:"not null;index"`

	// 图片URL或存储路径
	ImageURL string `gorm:"type:varchar(1023);not null"`

	// 图片展示顺序，0 起步，保证返回顺序与上传顺序一致
	DisplayOrder int `gorm:"default:0;index"`

	// 图片在COS中的ObjectKey
	ObjectKey string `gorm:"type:varchar(255);not null;index"`
}
