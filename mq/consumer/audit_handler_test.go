package consumer

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Xushengqwer/go-common/commonerrors"
	sharedConfig "github.com/Xushengqwer/go-common/config"
	"github.com/Xushengqwer/go-common/core"
	"github.com/Xushengqwer/go-common/models/enums"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/thread_service/models/dto"
	"github.com/Xushengqwer/thread_service/models/event"
	"github.com/Xushengqwer/thread_service/models/vo"
)

func newTestLogger(t *testing.T) *core.ZapLogger {
	t.Helper()
	logger, err := core.NewZapLogger(sharedConfig.ZapConfig{})
	require.NoError(t, err)
	return logger
}

// fakeAdminService 记录 AuditPost 调用，可注入错误。
type fakeAdminService struct {
	auditRequests []*dto.AuditPostRequest
	auditErr      error
}

func (f *fakeAdminService) AuditPost(_ context.Context, req *dto.AuditPostRequest) error {
	f.auditRequests = append(f.auditRequests, req)
	return f.auditErr
}

func (f *fakeAdminService) ListPostsByCondition(_ context.Context, _ *dto.ListPostsByConditionRequest) (*vo.OffsetPageVO, error) {
	return &vo.OffsetPageVO{}, nil
}

func messageWith(t *testing.T, evt interface{}) kafka.Message {
	t.Helper()
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafka.Message{Topic: "test-topic", Value: payload}
}

func TestApprovedAuditHandler_MarksPostApproved(t *testing.T) {
	adminSvc := &fakeAdminService{}
	handler := NewApprovedAuditHandler(newTestLogger(t), adminSvc)

	msg := messageWith(t, event.PostApprovedEvent{EventID: "evt-1", PostID: 42})
	err := handler.Handle(context.Background(), msg)

	require.NoError(t, err)
	require.Len(t, adminSvc.auditRequests, 1)
	assert.Equal(t, uint64(42), adminSvc.auditRequests[0].PostID)
	assert.Equal(t, enums.Approved, adminSvc.auditRequests[0].Status)
	assert.Empty(t, adminSvc.auditRequests[0].Reason)
}

func TestApprovedAuditHandler_UnparseableMessageSkipped(t *testing.T) {
	adminSvc := &fakeAdminService{}
	handler := NewApprovedAuditHandler(newTestLogger(t), adminSvc)

	err := handler.Handle(context.Background(), kafka.Message{Value: []byte("not-json")})

	// 无法解析的消息不重试。
	require.NoError(t, err)
	assert.Empty(t, adminSvc.auditRequests)
}

func TestApprovedAuditHandler_PostNotFoundNotRetried(t *testing.T) {
	adminSvc := &fakeAdminService{auditErr: commonerrors.ErrRepoNotFound}
	handler := NewApprovedAuditHandler(newTestLogger(t), adminSvc)

	msg := messageWith(t, event.PostApprovedEvent{EventID: "evt-2", PostID: 99})
	err := handler.Handle(context.Background(), msg)

	// 审核期间帖子被作者删除属正常时序，消费成功。
	require.NoError(t, err)
}

func TestApprovedAuditHandler_ServiceErrorRetried(t *testing.T) {
	adminSvc := &fakeAdminService{auditErr: assert.AnError}
	handler := NewApprovedAuditHandler(newTestLogger(t), adminSvc)

	msg := messageWith(t, event.PostApprovedEvent{EventID: "evt-3", PostID: 7})
	err := handler.Handle(context.Background(), msg)

	assert.Error(t, err)
}

func TestRejectedAuditHandler_MarksPostRejectedWithReason(t *testing.T) {
	adminSvc := &fakeAdminService{}
	handler := NewRejectedAuditHandler(newTestLogger(t), adminSvc)

	msg := messageWith(t, event.PostRejectedEvent{
		EventID:    "evt-4",
		PostID:     13,
		Suggestion: "Block",
		Details: []event.RejectionDetail{
			{Label: "Abuse", Suggestion: "Block", Score: 0.97, MatchedContent: []string{"辱骂词"}},
		},
	})
	err := handler.Handle(context.Background(), msg)

	require.NoError(t, err)
	require.Len(t, adminSvc.auditRequests, 1)
	req := adminSvc.auditRequests[0]
	assert.Equal(t, uint64(13), req.PostID)
	assert.Equal(t, enums.Rejected, req.Status)
	assert.Contains(t, req.Reason, "Suggestion: Block.")
	assert.Contains(t, req.Reason, "Label: Abuse")
	assert.Contains(t, req.Reason, "辱骂词")
}

func TestRejectedAuditHandler_ReasonTruncated(t *testing.T) {
	adminSvc := &fakeAdminService{}
	handler := NewRejectedAuditHandler(newTestLogger(t), adminSvc)

	var details []event.RejectionDetail
	for i := 0; i < 20; i++ {
		details = append(details, event.RejectionDetail{
			Label:      "Spam",
			Suggestion: "Review",
			Score:      0.55,
			MatchedContent: []string{
				strings.Repeat("x", 30),
			},
		})
	}
	msg := messageWith(t, event.PostRejectedEvent{EventID: "evt-5", PostID: 14, Suggestion: "Review", Details: details})

	err := handler.Handle(context.Background(), msg)

	require.NoError(t, err)
	require.Len(t, adminSvc.auditRequests, 1)
	// 数据库字段上限 255：原因被截断到 250 字符并追加省略号。
	assert.LessOrEqual(t, len(adminSvc.auditRequests[0].Reason), 255)
	assert.True(t, strings.HasSuffix(adminSvc.auditRequests[0].Reason, "..."))
}

func TestRejectedAuditHandler_UnparseableMessageSkipped(t *testing.T) {
	adminSvc := &fakeAdminService{}
	handler := NewRejectedAuditHandler(newTestLogger(t), adminSvc)

	err := handler.Handle(context.Background(), kafka.Message{Value: []byte("{broken")})

	require.NoError(t, err)
	assert.Empty(t, adminSvc.auditRequests)
}
