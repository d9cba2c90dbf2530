package tasks

import (
	"context"
	"time"

	"github.com/Xushengqwer/go-common/core"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/constant"
	"github.com/Xushengqwer/thread_service/repo/mysql"
)

// ReplyCountSyncTask 负责定时对账回复计数。
// 回复计数平时由创建回复的事务内自增维护，本任务兜底修复
// 人工改库、历史迁移等场景造成的计数漂移，保证最终一致。
type ReplyCountSyncTask struct {
	batchRepo mysql.ReplyCountBatchRepository
	cron      *cron.Cron
	logger    *core.ZapLogger
}

// scanPageSize 是单次漂移扫描返回的最大帖子数。
const scanPageSize = 500

// NewReplyCountSyncTask 初始化并启动回复计数对账的定时任务。
func NewReplyCountSyncTask(batchRepo mysql.ReplyCountBatchRepository, logger *core.ZapLogger) *ReplyCountSyncTask {
	cronV3 := cron.New() // 默认分钟级精度

	task := &ReplyCountSyncTask{
		batchRepo: batchRepo,
		cron:      cronV3,
		logger:    logger,
	}
	task.startCronJob()
	return task
}

// startCronJob 配置并启动 cron 作业。
func (t *ReplyCountSyncTask) startCronJob() {
	schedule := constant.ReplyCountSyncCronSpec
	t.logger.Info("准备启动回复计数对账定时任务", zap.String("schedule", schedule))

	entryID, err := t.cron.AddFunc(schedule, func() {
		t.logger.Info("回复计数对账任务开始执行...")
		startTime := time.Now()
		// 单次执行设置超时，防止任务卡死占用下一个周期。
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		t.syncReplyCounts(ctx)

		duration := time.Since(startTime)
		t.logger.Info("回复计数对账任务执行完毕", zap.Duration("duration", duration))
	})

	if err != nil {
		t.logger.Fatal("添加回复计数对账 cron 作业失败", zap.Error(err), zap.String("schedule", schedule))
	}

	t.cron.Start()
	t.logger.Info("回复计数对账定时任务已启动", zap.Uint("cronEntryID", uint(entryID)))
}

// syncReplyCounts 按主键分段扫描漂移并批量写回修正值。
func (t *ReplyCountSyncTask) syncReplyCounts(ctx context.Context) {
	var (
		afterID        uint64
		totalCorrected int
	)

	for {
		select {
		case <-ctx.Done():
			t.logger.Warn("回复计数对账任务因上下文取消提前结束", zap.Error(ctx.Err()), zap.Uint64("afterID", afterID))
			return
		default:
		}

		corrections, err := t.batchRepo.FindReplyCountDrift(ctx, afterID, scanPageSize)
		if err != nil {
			t.logger.Error("扫描回复计数漂移失败，本轮对账中止", zap.Error(err), zap.Uint64("afterID", afterID))
			return
		}
		if len(corrections) == 0 {
			break
		}

		if err := t.batchRepo.BatchCorrectReplyCounts(ctx, corrections); err != nil {
			// 部分批次失败不中止扫描，剩余漂移留给下一个周期。
			t.logger.Error("批量修正回复计数部分失败", zap.Error(err), zap.Uint64("afterID", afterID))
		}

		totalCorrected += len(corrections)
		afterID = corrections[len(corrections)-1].PostID

		// 不足一页说明已扫到表尾。
		if len(corrections) < scanPageSize {
			break
		}
	}

	if totalCorrected > 0 {
		t.logger.Info("本轮回复计数对账完成", zap.Int("correctedPosts", totalCorrected))
	} else {
		t.logger.Info("本轮回复计数对账完成，未发现漂移")
	}
}

// Stop 优雅地停止 cron 调度器。
func (t *ReplyCountSyncTask) Stop() context.Context {
	t.logger.Info("正在停止回复计数对账定时任务...")
	stopCtx := t.cron.Stop()
	t.logger.Info("回复计数对账定时任务已停止调度。等待正在执行的任务完成...")
	return stopCtx
}
