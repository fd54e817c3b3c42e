package notifier

import (
	"context"

	"resume-screener/internal/logger"

	"go.uber.org/zap"
)

// LogReporter 仅把摘要写入日志，适合开发阶段使用。
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter 创建日志渠道。
func NewLogReporter(log *zap.Logger) *LogReporter {
	return &LogReporter{logger: logger.OrNop(log).Named("report")}
}

func (LogReporter) Name() string { return "log" }

// Report 打印批次摘要和入选候选人。
func (r LogReporter) Report(_ context.Context, s Summary) error {
	r.logger.Info("batch summary",
		zap.String("run_id", s.RunID),
		zap.String("strategy", s.Strategy),
		zap.Int("total", s.Total),
		zap.Int("passed", s.Passed),
		zap.Int("rejected", s.Rejected),
		zap.Int("created", s.Created),
		zap.Int("skipped", s.Skipped),
	)
	for _, e := range s.Top {
		r.logger.Info("top candidate",
			zap.String("filename", e.Filename),
			zap.String("name", e.Name),
			zap.Float64("score", e.Score),
			zap.String("status", string(e.Status)),
		)
	}
	return nil
}
