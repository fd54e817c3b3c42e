package main

import (
	"context"
	"fmt"
	"strings"

	"resume-screener/internal/criteria"
	"resume-screener/internal/extractor"
	"resume-screener/internal/identity"
	"resume-screener/internal/inbox"
	"resume-screener/internal/model"
	"resume-screener/internal/notifier"
	"resume-screener/internal/processor"
	"resume-screener/internal/scheduler"
	"resume-screener/internal/screening"
	"resume-screener/internal/storage"

	"go.uber.org/zap"
)

const driverNone = "none"

type schedulerRunner interface {
	Start(ctx context.Context) error
	RunOnce(ctx context.Context) (int, error)
}

// appDeps 汇总各命令共用的依赖，store 与 sched 可为空。
type appDeps struct {
	logger    *zap.Logger
	store     *storage.Store
	processor *processor.Processor
	screener  *screening.Service
	criteria  *criteria.Builder
	defaults  criteria.Request
	sched     schedulerRunner
}

type appBuilder func(AppConfig) (appDeps, func(), error)

func newAppBuilder(log *zap.Logger) appBuilder {
	return func(cfg AppConfig) (appDeps, func(), error) {
		return buildApp(cfg, log)
	}
}

// buildApp 按配置装配依赖，返回的 cleanup 负责关闭连接。
func buildApp(cfg AppConfig, log *zap.Logger) (appDeps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (appDeps, func(), error) {
		cleanup()
		return appDeps{}, func() {}, err
	}

	deps := appDeps{logger: log}

	var store screening.Store
	if !strings.EqualFold(cfg.Database.Driver, driverNone) {
		s, err := storage.Open(cfg.Database)
		if err != nil {
			return fail(fmt.Errorf("init store: %w", err))
		}
		closers = append(closers, func() { _ = s.Close() })
		deps.store = s
		store = s
	}

	ext, err := extractor.NewFromConfig(cfg.Extractor, cfg.Extractor.UnipdfLicenseKey, log)
	if err != nil {
		return fail(fmt.Errorf("init extractor: %w", err))
	}
	ident := identity.NewExtractor(identity.ProseRecognizer{}, log)
	deps.processor = processor.New(cfg.Scoring, ext, ident, log)

	dispatcher, closeDispatcher, err := buildDispatcher(cfg, log)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeDispatcher)

	deps.screener = screening.NewService(deps.processor, store, dispatcher, log)
	deps.criteria = criteria.NewBuilder(cfg.Criteria.Cutoff)

	defaults, err := loadDefaultCriteria(cfg.Criteria)
	if err != nil {
		return fail(err)
	}
	deps.defaults = defaults

	if cfg.Inbox.Dir != "" && deps.store != nil {
		base, err := deps.criteria.Build(defaults)
		if err != nil {
			return fail(fmt.Errorf("inbox criteria: %w", err))
		}
		src := inbox.NewDirSource(cfg.Inbox, log)
		deps.sched = scheduler.NewScheduler(src, deps.screener, base, cfg.Scheduler, log)
	}

	return deps, cleanup, nil
}

// buildDispatcher 组装候选人邮件与招聘方摘要通道。
func buildDispatcher(cfg AppConfig, log *zap.Logger) (*notifier.Dispatcher, func(), error) {
	closeAll := func() {}

	var candidates notifier.CandidateSender
	if cfg.Email.Enabled {
		if !cfg.Email.Configured() {
			log.Warn("email notifier disabled: missing host/from")
		} else {
			candidates = notifier.NewCandidateNotifier(cfg.Email, notifier.NewSMTPClient(cfg.Email), log)
		}
	}

	reporters := []notifier.Reporter{notifier.NewLogReporter(log)}

	if cfg.Telegram.Enabled {
		tg, err := notifier.NewTelegramReporter(cfg.Telegram)
		if err != nil {
			return nil, closeAll, fmt.Errorf("init telegram reporter: %w", err)
		}
		reporters = append(reporters, tg)
	}

	if cfg.AMQP.Enabled {
		pub, err := notifier.DialAMQPPublisher(cfg.AMQP)
		if err != nil {
			return nil, closeAll, fmt.Errorf("init amqp publisher: %w", err)
		}
		closeAll = func() { _ = pub.Close() }
		reporters = append(reporters, pub)
	}

	return notifier.NewDispatcher(candidates, reporters, log), closeAll, nil
}

// loadDefaultCriteria 读取配置中的岗位要求文件与岗位描述文件。
func loadDefaultCriteria(cfg criteria.Config) (criteria.Request, error) {
	var req criteria.Request
	if cfg.File != "" {
		fromFile, err := criteria.LoadFile(cfg.File)
		if err != nil {
			return req, err
		}
		req = fromFile
	}
	if cfg.JobDescriptionFile != "" {
		jd, err := criteria.LoadJobDescription(cfg.JobDescriptionFile)
		if err != nil {
			return req, err
		}
		req.JobDescription = jd
	}
	return req, nil
}

// runOnceManual 装配依赖后手动处理一次收件目录。
func runOnceManual(ctx context.Context, cfg AppConfig, build appBuilder) (int, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	if deps.sched == nil {
		return 0, fmt.Errorf("inbox is not configured")
	}
	return deps.sched.RunOnce(ctx)
}

func criteriaSummary(c model.JobCriteria) []zap.Field {
	return []zap.Field{
		zap.Strings("skills", c.Skills),
		zap.Strings("education", c.Education),
		zap.Bool("job_description", c.HasJobDescription()),
		zap.Int("cutoff", c.Cutoff),
	}
}
