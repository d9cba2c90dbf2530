package mysql

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Xushengqwer/thread_service/config"
	"github.com/Xushengqwer/thread_service/models/entities"
)

// ReplyCountCorrection 表示一条回复计数的修正记录：
// 帖子 ID 与按子帖行数统计出的真实直接回复数。
type ReplyCountCorrection struct {
	PostID      uint64 `gorm:"column:post_id"`
	ActualCount int64  `gorm:"column:actual_count"`
}

// ReplyCountBatchRepository 定义了回复计数对账的批量数据库操作接口。
// - 服务于后台定时任务：回复计数由事务内自增维护，正常情况下不会漂移，
//   对账任务兜底修复人工改库、历史数据迁移等场景造成的不一致。
type ReplyCountBatchRepository interface {
	// FindReplyCountDrift 扫描一批 reply_count 与实际直接回复行数不一致的帖子。
	// - afterID 为上一批最后处理的帖子 ID，实现按主键分段扫描。
	// - 墓碑化的回复仍计入（墓碑占据楼层），因此统计不过滤 deleted_at。
	FindReplyCountDrift(ctx context.Context, afterID uint64, limit int) ([]ReplyCountCorrection, error)

	// BatchCorrectReplyCounts 并发、分批地将修正值写回 MySQL。
	// - 单批使用 CASE WHEN 构造单条 UPDATE，控制数据库往返次数。
	// - 允许部分批次失败（记录错误并聚合返回），以实现最终一致性。
	BatchCorrectReplyCounts(ctx context.Context, corrections []ReplyCountCorrection) error
}

type replyCountBatchRepository struct {
	db      *gorm.DB
	logger  *core.ZapLogger
	syncCfg config.ReplyCountSyncConfig
}

// NewReplyCountBatchRepository 是 replyCountBatchRepository 的构造函数。
func NewReplyCountBatchRepository(db *gorm.DB, logger *core.ZapLogger, syncCfg config.ReplyCountSyncConfig) ReplyCountBatchRepository {
	return &replyCountBatchRepository{db: db, logger: logger, syncCfg: syncCfg}
}

// FindReplyCountDrift 实现计数漂移扫描。
func (r *replyCountBatchRepository) FindReplyCountDrift(ctx context.Context, afterID uint64, limit int) ([]ReplyCountCorrection, error) {
	if limit <= 0 {
		limit = 500
	}

	var corrections []ReplyCountCorrection
	// 左连接统计每个帖子的实际直接回复数（含墓碑回复），与存储的计数比对。
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS post_id, COUNT(c.id) AS actual_count
		FROM posts p
		LEFT JOIN posts c ON c.parent_id = p.id
		WHERE p.id > ?
		GROUP BY p.id, p.reply_count
		HAVING COUNT(c.id) <> p.reply_count
		ORDER BY p.id
		LIMIT ?`, afterID, limit).
		Scan(&corrections).Error
	if err != nil {
		r.logger.Error("扫描回复计数漂移失败", zap.Error(err), zap.Uint64("afterID", afterID))
		return nil, err
	}

	if len(corrections) > 0 {
		r.logger.Info("发现回复计数漂移的帖子", zap.Int("count", len(corrections)), zap.Uint64("afterID", afterID))
	}
	return corrections, nil
}

// BatchCorrectReplyCounts 实现修正值的并发批量回写。
//
// 核心机制:
// 1. 数据分批: 根据配置 `syncCfg.BatchSize` 将修正记录分割成小批次。
// 2. 并发处理: 根据配置 `syncCfg.ConcurrencyLevel` 启动 worker goroutine 池处理这些批次。
// 3. 数据库更新: 每个 worker 对其批次内的数据构建单条 CASE WHEN UPDATE 语句写回。
func (r *replyCountBatchRepository) BatchCorrectReplyCounts(ctx context.Context, corrections []ReplyCountCorrection) error {
	totalUpdates := len(corrections)
	if totalUpdates == 0 {
		return nil
	}

	// --- 1. 加载并验证配置 ---
	batchSize := r.syncCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500 // Fallback
		r.logger.Warn("BatchCorrectReplyCounts: 配置 BatchSize 无效，使用默认值", zap.Int("defaultBatchSize", batchSize), zap.Int("configured", r.syncCfg.BatchSize))
	}

	concurrencyLevel := r.syncCfg.ConcurrencyLevel
	if concurrencyLevel <= 0 {
		concurrencyLevel = 1 // Fallback (顺序执行)
		r.logger.Warn("BatchCorrectReplyCounts: 配置 ConcurrencyLevel 无效，使用默认值 1", zap.Int("defaultConcurrency", concurrencyLevel), zap.Int("configured", r.syncCfg.ConcurrencyLevel))
	}

	totalBatches := (totalUpdates + batchSize - 1) / batchSize
	r.logger.Info("BatchCorrectReplyCounts: 开始并发批量修正回复计数",
		zap.Int("总数", totalUpdates),
		zap.Int("批大小", batchSize),
		zap.Int("并发数", concurrencyLevel),
		zap.Int("批次数", totalBatches),
	)

	// --- 2. 设置并发工作池 ---
	var wg sync.WaitGroup
	jobs := make(chan []ReplyCountCorrection, concurrencyLevel)
	results := make(chan error, totalBatches)
	overallStartTime := time.Now()

	// --- 3. 启动 Worker Goroutines ---
	for i := 0; i < concurrencyLevel; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for batch := range jobs {
				select {
				case <-ctx.Done():
					r.logger.Warn("上下文取消，Worker 停止处理", zap.Int("workerID", workerID), zap.Error(ctx.Err()))
					results <- fmt.Errorf("worker %d: context cancelled: %w", workerID, ctx.Err())
					continue
				default:
				}

				results <- r.processCorrectionBatch(ctx, batch, workerID)
			}
		}(i)
	}

	// --- 4. 启动分发任务 Goroutine ---
	go func() {
		defer close(jobs)
		for i := 0; i < totalUpdates; i += batchSize {
			end := i + batchSize
			if end > totalUpdates {
				end = totalUpdates
			}
			batchCopy := make([]ReplyCountCorrection, end-i)
			copy(batchCopy, corrections[i:end])

			select {
			case <-ctx.Done():
				r.logger.Warn("上下文取消，停止分发更多批次任务。", zap.Error(ctx.Err()))
				return
			case jobs <- batchCopy:
			}
		}
	}()

	// --- 5. 收集并聚合结果 ---
	go func() {
		wg.Wait()
		close(results)
	}()

	var aggregatedErrors []error
	for err := range results {
		if err != nil {
			aggregatedErrors = append(aggregatedErrors, err)
		}
	}

	totalDuration := time.Since(overallStartTime)
	failedCount := len(aggregatedErrors)
	r.logger.Info("完成所有批次的回复计数修正处理。",
		zap.Duration("总耗时", totalDuration),
		zap.Int("总批次数", totalBatches),
		zap.Int("失败批次数", failedCount),
	)

	if failedCount > 0 {
		var errorStrings []string
		for _, e := range aggregatedErrors {
			errorStrings = append(errorStrings, e.Error())
		}
		finalError := fmt.Errorf("并发批量修正过程中发生错误 (%d / %d 个批次失败): %s", failedCount, totalBatches, strings.Join(errorStrings, "; "))
		r.logger.Error("并发批量修正最终结果：失败", zap.Error(finalError))
		return finalError
	}

	return nil
}

// processCorrectionBatch 负责处理单个批次的数据库更新。
func (r *replyCountBatchRepository) processCorrectionBatch(ctx context.Context, batch []ReplyCountCorrection, workerID int) error {
	var (
		ids          []uint64
		sqlCase      strings.Builder
		updateParams []interface{}
	)
	sqlCase.WriteString("CASE id ")
	for _, item := range batch {
		ids = append(ids, item.PostID)
		sqlCase.WriteString("WHEN ? THEN ? ")
		updateParams = append(updateParams, item.PostID, item.ActualCount)
	}
	sqlCase.WriteString("END")

	dbOperationStart := time.Now()
	// Unscoped: 墓碑帖的计数同样参与对账。
	err := r.db.WithContext(ctx).Model(&entities.Post{}).Unscoped().
		Where("id IN ?", ids).
		Update("reply_count", gorm.Expr(sqlCase.String(), updateParams...)).Error
	dbDuration := time.Since(dbOperationStart)

	if err != nil {
		r.logger.Error("processCorrectionBatch: 数据库更新批次失败",
			zap.Int("workerID", workerID),
			zap.Int("batchSize", len(batch)),
			zap.Duration("db耗时", dbDuration),
			zap.Error(err),
		)
		return fmt.Errorf("worker %d 处理批次 (大小 %d) 失败: %w", workerID, len(batch), err)
	}

	r.logger.Debug("processCorrectionBatch: 数据库更新批次成功",
		zap.Int("workerID", workerID),
		zap.Int("batchSize", len(batch)),
		zap.Duration("db耗时", dbDuration),
	)
	return nil
}
