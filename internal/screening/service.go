package screening

import (
	"context"
	"fmt"

	"resume-screener/internal/logger"
	"resume-screener/internal/model"
	"resume-screener/internal/notifier"
	"resume-screener/internal/processor"
	"resume-screener/internal/storage"

	"go.uber.org/zap"
)

// Analyzer 执行纯计算的批量分析。
type Analyzer interface {
	Analyze(docs []model.ResumeDocument, criteria model.JobCriteria, opts processor.Options) (processor.Batch, error)
}

// Store 抽象持久化接口，便于测试替换。
type Store interface {
	SaveRecords(ctx context.Context, records []model.AnalysisRecord) (storage.SaveResult, error)
	UpdateNotification(ctx context.Context, id string, status model.NotificationStatus) error
}

// Dispatcher 在记录定稿后发送通知与摘要。
type Dispatcher interface {
	Dispatch(ctx context.Context, records []model.AnalysisRecord) []model.AnalysisRecord
	Report(ctx context.Context, summary notifier.Summary)
}

// Options 控制一次筛选的副作用。
type Options struct {
	Strategy string
	Persist  bool
	Notify   bool
	Progress func(done, total int)
}

// Result 是一次筛选的完整结果。
type Result struct {
	Batch   processor.Batch
	Save    storage.SaveResult
	Summary notifier.Summary
}

// Service 串联 分析 → 写库 → 通知 → 摘要，分析结果不受后续步骤影响。
type Service struct {
	analyzer   Analyzer
	store      Store
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewService 创建 Service，store 与 dispatcher 可为空。
func NewService(analyzer Analyzer, store Store, dispatcher Dispatcher, log *zap.Logger) *Service {
	return &Service{analyzer: analyzer, store: store, dispatcher: dispatcher, logger: logger.OrNop(log)}
}

// CanPersist 是否配置了存储。
func (s *Service) CanPersist() bool {
	return s.store != nil
}

// Screen 分析一批简历；只有分析失败（如未知策略）会返回错误。
// 写库失败时仍返回分析结果与错误；通知失败只体现在记录状态上。
func (s *Service) Screen(ctx context.Context, docs []model.ResumeDocument, criteria model.JobCriteria, opts Options) (Result, error) {
	batch, err := s.analyzer.Analyze(docs, criteria, processor.Options{Strategy: opts.Strategy, Progress: opts.Progress})
	if err != nil {
		return Result{}, fmt.Errorf("analyze batch: %w", err)
	}
	res := Result{Batch: batch}

	toNotify := batch.Records
	if opts.Persist && s.store != nil {
		saved, err := s.store.SaveRecords(ctx, cloneRecords(batch.Records))
		if err != nil {
			res.Summary = s.summarize(res)
			return res, fmt.Errorf("save records: %w", err)
		}
		res.Save = saved
		toNotify = saved.Saved
		s.logger.Info("records saved", zap.Int("created", saved.Created), zap.Int("skipped", saved.Skipped))
	}

	if opts.Notify && s.dispatcher != nil {
		notified := s.dispatcher.Dispatch(ctx, cloneRecords(toNotify))
		statuses := make(map[string]model.NotificationStatus, len(notified))
		for _, rec := range notified {
			statuses[rec.ID] = rec.Notification
			if opts.Persist && s.store != nil {
				if err := s.store.UpdateNotification(ctx, rec.ID, rec.Notification); err != nil {
					s.logger.Warn("update notification failed", zap.String("id", rec.ID), zap.Error(err))
				}
			}
		}
		for i := range res.Batch.Records {
			status, ok := statuses[res.Batch.Records[i].ID]
			if !ok {
				status = model.NotificationSkipped
			}
			res.Batch.Records[i].Notification = status
		}
	}

	res.Summary = s.summarize(res)
	if s.dispatcher != nil {
		s.dispatcher.Report(ctx, res.Summary)
	}
	return res, nil
}

func (s *Service) summarize(res Result) notifier.Summary {
	sum := notifier.Summarize(res.Batch.RunID, res.Batch.Strategy, res.Batch.Records, res.Batch.FinishedAt)
	sum.Created = res.Save.Created
	sum.Skipped = res.Save.Skipped
	return sum
}

func cloneRecords(records []model.AnalysisRecord) []model.AnalysisRecord {
	return append([]model.AnalysisRecord(nil), records...)
}
