package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"resume-screener/internal/model"

	"gorm.io/datatypes"
)

func newTestStore(t *testing.T, dedup string) *Store {
	t.Helper()

	store, err := Open(Config{Path: filepath.Join(t.TempDir(), "resume_data.db"), Dedup: dedup})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreSaveAndList(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "")
	ctx := context.Background()
	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	records := []model.AnalysisRecord{
		{
			ID:          "r1",
			RunID:       "run-1",
			Filename:    "alice.pdf",
			Name:        "Alice",
			Email:       "alice@example.com",
			Score:       65,
			Status:      model.StatusSelected,
			Missing:     datatypes.JSONSlice[string]{"sql"},
			RawText:     "Python developer with B.Tech",
			ProcessedAt: first,
		},
		{
			ID:          "r2",
			RunID:       "run-1",
			Filename:    "bob.pdf",
			Name:        "Bob",
			Score:       20,
			Status:      model.StatusRejected,
			RawText:     "Pastry chef",
			ProcessedAt: second,
		},
	}

	res, err := store.SaveRecords(ctx, records)
	if err != nil {
		t.Fatalf("SaveRecords error: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Fatalf("expected 2 created 0 skipped, got %+v", res)
	}

	list, err := store.ListRecords(ctx, RecordQuery{})
	if err != nil {
		t.Fatalf("ListRecords error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].ID != "r2" {
		t.Fatalf("expected newest record first, got %s", list[0].ID)
	}
	if got := []string(list[1].Missing); len(got) != 1 || got[0] != "sql" {
		t.Fatalf("expected missing [sql], got %v", got)
	}

	selected, err := store.ListRecords(ctx, RecordQuery{Status: model.StatusSelected})
	if err != nil {
		t.Fatalf("ListRecords status error: %v", err)
	}
	if len(selected) != 1 || selected[0].ID != "r1" {
		t.Fatalf("expected only r1 selected, got %+v", selected)
	}

	total, err := store.CountRecords(ctx, RecordQuery{RunID: "run-1"})
	if err != nil {
		t.Fatalf("CountRecords error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected total 2, got %d", total)
	}

	page, err := store.ListRecords(ctx, RecordQuery{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListRecords page error: %v", err)
	}
	if len(page) != 1 || page[0].ID != "r1" {
		t.Fatalf("expected second page to hold r1, got %+v", page)
	}
}

func TestStoreDedupFilenameDay(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, DedupFilenameDay)
	ctx := context.Background()
	day := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	if _, err := store.SaveRecords(ctx, []model.AnalysisRecord{
		{Filename: "cv.pdf", Score: 10, ProcessedAt: day},
	}); err != nil {
		t.Fatalf("SaveRecords error: %v", err)
	}

	res, err := store.SaveRecords(ctx, []model.AnalysisRecord{
		{Filename: "cv.pdf", Score: 90, ProcessedAt: day.Add(3 * time.Hour)},
		{Filename: "cv.pdf", Score: 80, ProcessedAt: day.Add(24 * time.Hour)},
		{Filename: "new.pdf", Score: 70, ProcessedAt: day},
		{Filename: "new.pdf", Score: 60, ProcessedAt: day},
	})
	if err != nil {
		t.Fatalf("SaveRecords error: %v", err)
	}
	if res.Created != 2 || res.Skipped != 2 {
		t.Fatalf("expected 2 created 2 skipped, got created=%d skipped=%d", res.Created, res.Skipped)
	}
	for _, rec := range res.Saved {
		if rec.ID == "" {
			t.Fatalf("expected generated id for %s", rec.Filename)
		}
	}

	total, err := store.CountRecords(ctx, RecordQuery{})
	if err != nil {
		t.Fatalf("CountRecords error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 rows, got %d", total)
	}
}

func TestStoreAlwaysAppend(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, DedupAlwaysAppend)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC) }

	for i := 0; i < 2; i++ {
		res, err := store.SaveRecords(ctx, []model.AnalysisRecord{{Filename: "cv.pdf"}})
		if err != nil {
			t.Fatalf("SaveRecords error: %v", err)
		}
		if res.Created != 1 {
			t.Fatalf("expected append, got %+v", res)
		}
		if res.Saved[0].ProcessedDay != "2024-05-02" {
			t.Fatalf("expected processed day to be stamped, got %q", res.Saved[0].ProcessedDay)
		}
	}
}

func TestOpenRejectsUnknownSettings(t *testing.T) {
	t.Parallel()

	if _, err := Open(Config{Path: filepath.Join(t.TempDir(), "x.db"), Dedup: "by-email"}); err == nil {
		t.Fatalf("expected dedup error")
	}
	if _, err := Open(Config{Driver: "postgres"}); err == nil {
		t.Fatalf("expected driver error")
	}
	if _, err := Open(Config{Driver: "mysql"}); err == nil {
		t.Fatalf("expected missing dsn error")
	}
}

func TestGetAndFindRecord(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "")
	ctx := context.Background()
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.SaveRecords(ctx, []model.AnalysisRecord{
		{ID: "old", Filename: "a.pdf", Name: "Jane Doe", ProcessedAt: at},
		{ID: "new", Filename: "b.pdf", Name: "Jane Doe", ProcessedAt: at.Add(time.Hour)},
	}); err != nil {
		t.Fatalf("SaveRecords error: %v", err)
	}

	rec, err := store.GetRecord(ctx, "old")
	if err != nil {
		t.Fatalf("GetRecord error: %v", err)
	}
	if rec.Filename != "a.pdf" {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := store.GetRecord(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	found, err := store.FindRecordByName(ctx, "  jane doe ")
	if err != nil {
		t.Fatalf("FindRecordByName error: %v", err)
	}
	if found.ID != "new" {
		t.Fatalf("expected latest record, got %s", found.ID)
	}

	if _, err := store.FindRecordByName(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchRecords(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, DedupAlwaysAppend)
	ctx := context.Background()

	if _, err := store.SaveRecords(ctx, []model.AnalysisRecord{
		{ID: "1", Filename: "one.pdf", RawText: "Kubernetes operator in Go"},
		{ID: "2", Filename: "two.pdf", Email: "ops@kube.io", RawText: "Ansible"},
		{ID: "3", Filename: "three.pdf", RawText: "100% test_coverage"},
	}); err != nil {
		t.Fatalf("SaveRecords error: %v", err)
	}

	hits, err := store.SearchRecords(ctx, "KUBE", 10)
	if err != nil {
		t.Fatalf("SearchRecords error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}

	literal, err := store.SearchRecords(ctx, "t_c", 10)
	if err != nil {
		t.Fatalf("SearchRecords error: %v", err)
	}
	if len(literal) != 1 || literal[0].ID != "3" {
		t.Fatalf("expected underscore to match literally, got %+v", literal)
	}

	none, err := store.SearchRecords(ctx, "   ", 10)
	if err != nil {
		t.Fatalf("SearchRecords error: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no hits for blank query")
	}
}

func TestUpdateNotification(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, "")
	ctx := context.Background()

	if _, err := store.SaveRecords(ctx, []model.AnalysisRecord{{ID: "r1", Filename: "a.pdf"}}); err != nil {
		t.Fatalf("SaveRecords error: %v", err)
	}
	if err := store.UpdateNotification(ctx, "r1", model.NotificationSent); err != nil {
		t.Fatalf("UpdateNotification error: %v", err)
	}
	rec, err := store.GetRecord(ctx, "r1")
	if err != nil {
		t.Fatalf("GetRecord error: %v", err)
	}
	if rec.Notification != model.NotificationSent {
		t.Fatalf("expected sent, got %q", rec.Notification)
	}
	if err := store.UpdateNotification(ctx, "missing", model.NotificationFailed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
