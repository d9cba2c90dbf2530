package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/Xushengqwer/go-common/core"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/service"
)

// Seed 通过服务层填充测试数据：先并发创建根帖，再对成功创建的根帖追加回复。
// 走服务层而非直接写库，顺带覆盖事务、计数自增与 Kafka 事件的完整链路。
func Seed(ctx context.Context, postSvc service.PostService, logger *core.ZapLogger, numPosts int, replyRatio float64) {
	logger.Info("开始填充测试数据 (通过服务层)...", zap.Int("根帖数量", numPosts))

	var wg sync.WaitGroup
	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	var mu sync.Mutex
	var rootIDs []uint64

	// --- 第一阶段: 并发创建根帖 ---
	for i := 0; i < numPosts; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(itemIndex int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			authorID := uuid.New().String()
			createReq := &dto.CreatePostRequest{
				Content:        gofakeit.Paragraph(1, 3, 15, " "),
				AuthorUsername: gofakeit.Username(),
				AuthorAvatar:   gofakeit.ImageURL(100, 100),
			}

			resp, err := postSvc.CreatePost(ctx, authorID, createReq)
			if err != nil {
				logger.Error(fmt.Sprintf("创建根帖 %d/%d 失败", itemIndex+1, numPosts),
					zap.Error(err),
					zap.String("author_id", authorID))
				return
			}

			mu.Lock()
			rootIDs = append(rootIDs, resp.ID)
			mu.Unlock()
			logger.Info(fmt.Sprintf("成功创建根帖 %d/%d", itemIndex+1, numPosts), zap.Uint64("post_id", resp.ID))
		}(i)
	}
	wg.Wait()

	if len(rootIDs) == 0 {
		logger.Warn("没有成功创建任何根帖，跳过回复填充。")
		return
	}

	// --- 第二阶段: 为根帖追加回复 ---
	totalReplies := int(float64(len(rootIDs)) * replyRatio)
	logger.Info("根帖创建完毕，开始追加回复...", zap.Int("根帖数", len(rootIDs)), zap.Int("回复总数", totalReplies))

	for i := 0; i < totalReplies; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(itemIndex int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			mu.Lock()
			parentID := rootIDs[gofakeit.Number(0, len(rootIDs)-1)]
			mu.Unlock()

			authorID := uuid.New().String()
			replyReq := &dto.CreatePostRequest{
				Content:        gofakeit.Sentence(gofakeit.Number(5, 25)),
				ParentID:       &parentID,
				AuthorUsername: gofakeit.Username(),
				AuthorAvatar:   gofakeit.ImageURL(100, 100),
			}

			if _, err := postSvc.CreatePost(ctx, authorID, replyReq); err != nil {
				logger.Error(fmt.Sprintf("创建回复 %d/%d 失败", itemIndex+1, totalReplies),
					zap.Error(err),
					zap.Uint64("parent_id", parentID))
			}
		}(i)
	}
	wg.Wait()

	logger.Info("测试数据填充完毕 (通过服务层)。")
}
