package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Xushengqwer/go-common/commonerrors"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/event"
	"github.com/Xushengqwer/thread_service/service"
)

// todo 未配置死信队列

// MessageHandler 定义了处理 Kafka 消息的接口
type MessageHandler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// --- ApprovedAuditHandler ---

// ApprovedAuditHandler 处理审核服务回写的“审核通过”事件，将帖子状态置为已发布。
type ApprovedAuditHandler struct {
	logger           *core.ZapLogger
	postAdminService service.PostAdminService
}

func NewApprovedAuditHandler(logger *core.ZapLogger, postAdminService service.PostAdminService) *ApprovedAuditHandler {
	return &ApprovedAuditHandler{
		logger:           logger,
		postAdminService: postAdminService,
	}
}

func (h *ApprovedAuditHandler) Handle(ctx context.Context, msg kafka.Message) error {
	h.logger.Debug("ApprovedAuditHandler: 开始处理 Kafka 消息", zap.String("topic", msg.Topic))

	var evt event.PostApprovedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger.Error("ApprovedAuditHandler: 反序列化 Kafka 消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil // 不重试无法解析的消息
	}

	postID := evt.PostID
	h.logger.Info("ApprovedAuditHandler: 成功解析审核通过消息",
		zap.String("event_id", evt.EventID),
		zap.Uint64("post_id", postID))

	auditRequest := &dto.AuditPostRequest{
		PostID: postID,
		Status: enums.Approved,
		Reason: "",
	}

	updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.postAdminService.AuditPost(updateCtx, auditRequest)
	if err != nil {
		h.logger.Error("ApprovedAuditHandler: 更新帖子状态为已发布失败", zap.Error(err), zap.Uint64("post_id", postID))
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			// 帖子在审核期间被作者删除属正常时序，不再重试。
			h.logger.Warn("ApprovedAuditHandler: 尝试更新不存在或已删除的帖子状态", zap.Uint64("post_id", postID))
			return nil
		}
		return fmt.Errorf("ApprovedAuditHandler: 调用 AuditPost 失败: %w", err)
	}

	h.logger.Info("ApprovedAuditHandler: 成功更新帖子状态为已发布", zap.Uint64("post_id", postID))
	return nil
}

// --- RejectedAuditHandler ---

// RejectedAuditHandler 处理审核服务回写的“审核拒绝”事件，将拒绝原因落库。
type RejectedAuditHandler struct {
	logger           *core.ZapLogger
	postAdminService service.PostAdminService
}

func NewRejectedAuditHandler(logger *core.ZapLogger, postAdminService service.PostAdminService) *RejectedAuditHandler {
	return &RejectedAuditHandler{
		logger:           logger,
		postAdminService: postAdminService,
	}
}

// formatRejectionReason 拼接审核拒绝原因
func (h *RejectedAuditHandler) formatRejectionReason(evt *event.PostRejectedEvent) string {
	var reasonBuilder strings.Builder

	reasonBuilder.WriteString(fmt.Sprintf("Suggestion: %s.", evt.Suggestion))

	if len(evt.Details) > 0 {
		reasonBuilder.WriteString(" Details: [")
		var detailStrings []string
		for _, detail := range evt.Details {
			matched := ""
			if len(detail.MatchedContent) > 0 {
				matched = fmt.Sprintf(", Matched: '%s'", strings.Join(detail.MatchedContent, "','"))
			}
			detailStrings = append(detailStrings,
				fmt.Sprintf("{Label: %s, Suggestion: %s, Score: %.2f%s}",
					detail.Label, detail.Suggestion, detail.Score, matched))
		}
		reasonBuilder.WriteString(strings.Join(detailStrings, "; "))
		reasonBuilder.WriteString("]")
	}

	reasonStr := reasonBuilder.String()
	const maxReasonLength = 250 // 数据库字段长度为 255
	if len(reasonStr) > maxReasonLength {
		reasonStr = reasonStr[:maxReasonLength] + "..."
	}
	return reasonStr
}

func (h *RejectedAuditHandler) Handle(ctx context.Context, msg kafka.Message) error {
	h.logger.Debug("RejectedAuditHandler: 开始处理 Kafka 消息", zap.String("topic", msg.Topic))

	var evt event.PostRejectedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		h.logger.Error("RejectedAuditHandler: 反序列化 Kafka 消息失败", zap.Error(err), zap.ByteString("value", msg.Value))
		return nil // 不重试无法解析的消息
	}

	postID := evt.PostID
	auditReason := h.formatRejectionReason(&evt)

	h.logger.Info("RejectedAuditHandler: 成功解析审核拒绝消息",
		zap.String("event_id", evt.EventID),
		zap.Uint64("post_id", postID),
		zap.String("generated_reason", auditReason))

	auditRequest := &dto.AuditPostRequest{
		PostID: postID,
		Status: enums.Rejected,
		Reason: auditReason,
	}

	updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.postAdminService.AuditPost(updateCtx, auditRequest)
	if err != nil {
		h.logger.Error("RejectedAuditHandler: 更新帖子状态为已拒绝失败",
			zap.Error(err),
			zap.Uint64("post_id", postID),
			zap.String("reason", auditReason))
		if errors.Is(err, commonerrors.ErrRepoNotFound) {
			h.logger.Warn("RejectedAuditHandler: 尝试更新不存在或已删除的帖子状态", zap.Uint64("post_id", postID))
			return nil
		}
		return fmt.Errorf("RejectedAuditHandler: 调用 AuditPost 失败: %w", err)
	}

	h.logger.Info("RejectedAuditHandler: 成功更新帖子状态为已拒绝", zap.Uint64("post_id", postID))
	return nil
}
