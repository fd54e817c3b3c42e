package notifier

import (
	"context"

	"resume-screener/internal/logger"
	"resume-screener/internal/model"

	"go.uber.org/zap"
)

// CandidateSender 给单个候选人发送通知。
type CandidateSender interface {
	Notify(ctx context.Context, notice Notice) model.NotificationStatus
}

// Reporter 接收批次摘要。
type Reporter interface {
	Name() string
	Report(ctx context.Context, summary Summary) error
}

// Dispatcher 在记录定稿后分发候选人通知与批次摘要，任何失败都不会中断批次。
type Dispatcher struct {
	candidates CandidateSender
	reporters  []Reporter
	logger     *zap.Logger
}

// NewDispatcher 创建 Dispatcher，candidates 为空时全部记为 skipped。
func NewDispatcher(candidates CandidateSender, reporters []Reporter, log *zap.Logger) *Dispatcher {
	return &Dispatcher{candidates: candidates, reporters: reporters, logger: logger.OrNop(log)}
}

// Dispatch 逐条发送通知，把结果写回记录并返回。
func (d *Dispatcher) Dispatch(ctx context.Context, records []model.AnalysisRecord) []model.AnalysisRecord {
	for i := range records {
		status := model.NotificationSkipped
		if d.candidates != nil {
			status = d.candidates.Notify(ctx, NoticeFromRecord(records[i]))
		}
		records[i].Notification = status
		d.logger.Debug("candidate notified",
			zap.String("filename", records[i].Filename),
			zap.String("notification", string(status)),
		)
	}
	return records
}

// Report 把摘要发送给所有渠道，失败只记录日志。
func (d *Dispatcher) Report(ctx context.Context, summary Summary) {
	for _, r := range d.reporters {
		if err := r.Report(ctx, summary); err != nil {
			d.logger.Warn("report batch failed", zap.String("reporter", r.Name()), zap.Error(err))
		}
	}
}
