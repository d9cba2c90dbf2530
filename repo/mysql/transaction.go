package mysql

import (
	"context"

	"gorm.io/gorm"
)

// TransactionManager 抽象数据库事务边界。
// - 服务层通过该接口编排跨多个仓库方法的原子操作（如“创建回复 + 父帖计数自增”），
//   而不直接依赖 *gorm.DB，便于在单元测试中替换为假实现。
type TransactionManager interface {
	// WithTransaction 在单个数据库事务中执行 fn。
	// - fn 返回非 nil 错误时整个事务回滚，否则提交。
	// - fn 收到的 tx 应被传递给各仓库方法的 db 参数。
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager 是 gormTransactionManager 的构造函数。
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &gormTransactionManager{db: db}
}

func (m *gormTransactionManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}
