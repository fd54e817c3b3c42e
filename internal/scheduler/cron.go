package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"resume-screener/internal/inbox"
	"resume-screener/internal/logger"
	"resume-screener/internal/model"
	"resume-screener/internal/screening"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config 用于调度配置。
type Config struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Interval string `mapstructure:"interval" yaml:"interval"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout"`
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	Notify   bool   `mapstructure:"notify" yaml:"notify"`
}

// Screener 执行一次筛选，便于测试替换。
type Screener interface {
	Screen(ctx context.Context, docs []model.ResumeDocument, criteria model.JobCriteria, opts screening.Options) (screening.Result, error)
}

// Scheduler 负责周期性处理收件目录中的简历并写入存储。
type Scheduler struct {
	source   inbox.Source
	screener Screener
	criteria model.JobCriteria
	strategy string
	notify   bool
	interval time.Duration
	cronSpec string
	cron     *cronSchedule
	timeout  time.Duration
	running  atomic.Bool
	logger   *zap.Logger

	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，解析配置的间隔与超时。
func NewScheduler(src inbox.Source, screener Screener, criteria model.JobCriteria, cfg Config, log *zap.Logger) *Scheduler {
	interval, cronCfg := parseSchedule(cfg.Interval)
	timeout := 5 * time.Minute
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	return &Scheduler{
		source:    src,
		screener:  screener,
		criteria:  criteria,
		strategy:  cfg.Strategy,
		notify:    cfg.Notify,
		interval:  interval,
		cronSpec:  cronCfg.spec,
		cron:      cronCfg.schedule,
		timeout:   timeout,
		logger:    logger.OrNop(log).Named("scheduler"),
		newTicker: defaultTicker,
		now:       time.Now,
	}
}

// Start 启动调度循环，直到上下文取消。单次运行失败只记录日志。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.source == nil || s.screener == nil {
		return fmt.Errorf("scheduler missing dependencies")
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.cron != nil {
		g.Go(func() error {
			return s.startCron(ctx)
		})
	} else {
		tick := s.newTicker(s.interval)
		ch := tick.C()

		g.Go(func() error {
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ch:
					s.runLogged(ctx)
				drain:
					for {
						select {
						case <-ch:
							continue
						default:
							break drain
						}
					}
				}
			}
		})
	}

	return g.Wait()
}

// RunOnce 对外暴露单次处理接口，便于手动刷新，返回新写入的记录数。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runLogged(ctx context.Context) {
	created, err := s.runOnce(ctx)
	if err != nil {
		s.logger.Error("inbox run failed", zap.Error(err))
		return
	}
	s.logger.Info("inbox run finished", zap.Int("created", created))
}

func (s *Scheduler) runOnce(ctx context.Context) (int, error) {
	if s.running.Swap(true) {
		return 0, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch inbox: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	docs := make([]model.ResumeDocument, 0, len(items))
	for _, item := range items {
		docs = append(docs, item.Document)
	}

	res, err := s.screener.Screen(ctx, docs, s.criteria, screening.Options{
		Strategy: s.strategy,
		Persist:  true,
		Notify:   s.notify,
	})
	if err != nil {
		return 0, fmt.Errorf("screen inbox: %w", err)
	}

	if err := s.source.Ack(ctx, items); err != nil {
		return res.Save.Created, fmt.Errorf("ack inbox: %w", err)
	}

	return res.Save.Created, nil
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }

func (s *Scheduler) startCron(ctx context.Context) error {
	if s.cron == nil {
		return fmt.Errorf("cron schedule missing")
	}

	for {
		next, err := s.cron.next(s.now())
		if err != nil {
			return fmt.Errorf("compute next cron time: %w", err)
		}
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			s.runLogged(ctx)
		}
	}
}

type cronConfig struct {
	spec     string
	schedule *cronSchedule
}

func parseSchedule(value string) (time.Duration, cronConfig) {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" {
		if d, err := time.ParseDuration(trimmed); err == nil && d > 0 {
			return d, cronConfig{}
		}
		schedule, err := parseCronSpec(trimmed)
		if err == nil {
			return 0, cronConfig{spec: trimmed, schedule: schedule}
		}
	}

	return 15 * time.Minute, cronConfig{}
}

type cronSchedule struct {
	minutes map[int]struct{}
	hours   map[int]struct{}
	doms    map[int]struct{}
	months  map[int]struct{}
	dows    map[int]struct{}
}

func parseCronSpec(spec string) (*cronSchedule, error) {
	parts := strings.Fields(spec)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron spec must have 5 fields")
	}

	minutes, err := parseCronField(parts[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("minutes: %w", err)
	}
	hours, err := parseCronField(parts[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("hours: %w", err)
	}
	doms, err := parseCronField(parts[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("day-of-month: %w", err)
	}
	months, err := parseCronField(parts[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("month: %w", err)
	}
	dows, err := parseCronField(parts[4], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("day-of-week: %w", err)
	}

	return &cronSchedule{minutes: minutes, hours: hours, doms: doms, months: months, dows: dows}, nil
}

func parseCronField(expr string, min, max int) (map[int]struct{}, error) {
	result := make(map[int]struct{})
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty field")
	}
	parts := strings.Split(expr, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, step := min, max, 1
		if base, stepText, ok := strings.Cut(part, "/"); ok {
			v, err := strconv.Atoi(stepText)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("invalid step %s", part)
			}
			step = v
			part = base
		}
		switch {
		case part == "*":
		case strings.Contains(part, "-"):
			from, to, _ := strings.Cut(part, "-")
			a, errA := strconv.Atoi(from)
			b, errB := strconv.Atoi(to)
			if errA != nil || errB != nil || a < min || b > max || a > b {
				return nil, fmt.Errorf("invalid range %s", part)
			}
			lo, hi = a, b
		default:
			v, err := strconv.Atoi(part)
			if err != nil || v < min || v > max {
				return nil, fmt.Errorf("invalid value %s", part)
			}
			lo, hi = v, v
			if step > 1 {
				hi = max
			}
		}
		for i := lo; i <= hi; i += step {
			result[i] = struct{}{}
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no values parsed")
	}
	return result, nil
}

func (c *cronSchedule) matches(t time.Time) bool {
	if _, ok := c.minutes[t.Minute()]; !ok {
		return false
	}
	if _, ok := c.hours[t.Hour()]; !ok {
		return false
	}
	if _, ok := c.months[int(t.Month())]; !ok {
		return false
	}
	if _, ok := c.doms[t.Day()]; !ok {
		return false
	}
	if _, ok := c.dows[int(t.Weekday())]; !ok {
		return false
	}
	return true
}

func (c *cronSchedule) next(after time.Time) (time.Time, error) {
	start := after.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 525600; i++ { // up to one year of minutes
		candidate := start.Add(time.Duration(i) * time.Minute)
		if c.matches(candidate) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no matching time found")
}
