package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"resume-screener/internal/inbox"
	"resume-screener/internal/model"
	"resume-screener/internal/screening"
	"resume-screener/internal/storage"
)

func TestSchedulerRunOnce(t *testing.T) {
	t.Parallel()

	src := &stubSource{items: []inbox.Item{
		{Path: "in/a.pdf", Document: model.ResumeDocument{Name: "a.pdf"}},
		{Path: "in/b.pdf", Document: model.ResumeDocument{Name: "b.pdf"}},
	}}
	sc := &stubScreener{}
	criteria := model.JobCriteria{Skills: []string{"go"}, Cutoff: 50}

	sched := NewScheduler(src, sc, criteria, Config{Interval: "1h", Timeout: "5s", Strategy: "fuzzy", Notify: true}, nil)

	created, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if created != 2 {
		t.Fatalf("expected 2 created records, got %d", created)
	}
	if src.fetches.Load() != 1 || src.acked != 2 {
		t.Fatalf("expected one fetch and two acks, got fetches=%d acked=%d", src.fetches.Load(), src.acked)
	}
	if sc.calls.Load() != 1 {
		t.Fatalf("expected screener called once, got %d", sc.calls.Load())
	}
	if !sc.lastOpts.Persist || !sc.lastOpts.Notify || sc.lastOpts.Strategy != "fuzzy" {
		t.Fatalf("unexpected screening options %+v", sc.lastOpts)
	}
	if len(sc.lastCriteria.Skills) != 1 || sc.lastCriteria.Cutoff != 50 {
		t.Fatalf("unexpected criteria %+v", sc.lastCriteria)
	}
}

func TestSchedulerEmptyInboxSkipsScreening(t *testing.T) {
	t.Parallel()

	src := &stubSource{}
	sc := &stubScreener{}
	sched := NewScheduler(src, sc, model.JobCriteria{}, Config{}, nil)

	created, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if created != 0 || sc.calls.Load() != 0 {
		t.Fatalf("expected no screening, got created=%d calls=%d", created, sc.calls.Load())
	}
}

func TestSchedulerDoesNotAckOnScreenError(t *testing.T) {
	t.Parallel()

	src := &stubSource{items: []inbox.Item{{Path: "in/a.pdf"}}}
	sc := &stubScreener{err: errors.New("db locked")}
	sched := NewScheduler(src, sc, model.JobCriteria{}, Config{}, nil)

	if _, err := sched.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if src.acked != 0 {
		t.Fatalf("expected no ack after failure, got %d", src.acked)
	}
}

func TestSchedulerNoOverlap(t *testing.T) {
	t.Parallel()

	tickCh := make(chan time.Time, 4)
	st := &stubTicker{ch: tickCh}

	src := &stubSource{
		items: []inbox.Item{{Path: "in/a.pdf"}},
		block: make(chan struct{}),
	}
	sc := &stubScreener{}

	sched := NewScheduler(src, sc, model.JobCriteria{}, Config{Interval: "100ms", Timeout: "5s"}, nil)
	sched.newTicker = func(d time.Duration) ticker { return st }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = sched.Start(ctx)
	}()

	// first tick blocks in Fetch until released
	tickCh <- time.Now()
	time.Sleep(20 * time.Millisecond)

	tickCh <- time.Now()

	close(src.block)

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if src.fetches.Load() != 1 {
		t.Fatalf("expected fetch called once due to overlap prevention, got %d", src.fetches.Load())
	}
	if sc.calls.Load() != 1 {
		t.Fatalf("expected screener called once, got %d", sc.calls.Load())
	}
}

func TestSchedulerKeepsRunningAfterFailedRun(t *testing.T) {
	t.Parallel()

	tickCh := make(chan time.Time, 1)
	src := &stubSource{err: errors.New("permission denied")}
	sched := NewScheduler(src, &stubScreener{}, model.JobCriteria{}, Config{Interval: "1h"}, nil)
	sched.newTicker = func(d time.Duration) ticker { return &stubTicker{ch: tickCh} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	tickCh <- time.Now()
	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if src.fetches.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", src.fetches.Load())
	}
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	if d, cron := parseSchedule("30m"); d != 30*time.Minute || cron.schedule != nil {
		t.Fatalf("expected 30m interval, got %v %+v", d, cron)
	}
	if d, _ := parseSchedule("not a schedule"); d != 15*time.Minute {
		t.Fatalf("expected default interval, got %v", d)
	}

	_, cron := parseSchedule("*/15 9-17 * * 1-5")
	if cron.schedule == nil {
		t.Fatalf("expected cron schedule")
	}
	// 2024-03-01 is a Friday
	next, err := cron.schedule.next(time.Date(2024, 3, 1, 17, 50, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("next error: %v", err)
	}
	want := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestParseCronFieldRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "60", "5-1", "*/0", "a"} {
		if _, err := parseCronField(expr, 0, 59); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
	}
}

// --- stubs ---

type stubSource struct {
	items   []inbox.Item
	err     error
	fetches atomic.Int32
	block   chan struct{}
	mu      sync.Mutex
	acked   int
}

func (s *stubSource) Fetch(ctx context.Context) ([]inbox.Item, error) {
	s.fetches.Add(1)
	if s.block != nil {
		<-s.block
	}
	return s.items, s.err
}

func (s *stubSource) Ack(ctx context.Context, items []inbox.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked += len(items)
	return nil
}

type stubScreener struct {
	calls        atomic.Int32
	lastOpts     screening.Options
	lastCriteria model.JobCriteria
	err          error
}

func (s *stubScreener) Screen(ctx context.Context, docs []model.ResumeDocument, criteria model.JobCriteria, opts screening.Options) (screening.Result, error) {
	s.calls.Add(1)
	s.lastOpts = opts
	s.lastCriteria = criteria
	if s.err != nil {
		return screening.Result{}, s.err
	}
	return screening.Result{Save: storage.SaveResult{Created: len(docs)}}, nil
}

type stubTicker struct {
	ch chan time.Time
}

func (s *stubTicker) C() <-chan time.Time { return s.ch }
func (s *stubTicker) Stop()               {}
