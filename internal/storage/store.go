package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-screener/internal/model"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	// DedupFilenameDay 同一文件名在同一天（UTC）只写入一次。
	DedupFilenameDay = "filename-day"
	// DedupAlwaysAppend 不去重，总是追加。
	DedupAlwaysAppend = "always-append"

	defaultDBPath = "data/resume_data.db"
)

// ErrNotFound 记录不存在。
var ErrNotFound = errors.New("record not found")

// Config 描述数据库连接与去重策略。
type Config struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	Path   string `mapstructure:"path" yaml:"path"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
	Dedup  string `mapstructure:"dedup" yaml:"dedup"`
}

// Store 封装分析记录的持久化，只追加，不修改评分结果。
type Store struct {
	db    *gorm.DB
	dedup string
	now   func() time.Time
}

// SaveResult 表示一次批量写入的结果。
type SaveResult struct {
	Created int
	Skipped int
	Saved   []model.AnalysisRecord
}

// RecordQuery 提供记录查询过滤条件。
// - Query: 对原文、姓名、邮箱、文件名做不区分大小写的子串匹配
type RecordQuery struct {
	Limit  int
	Offset int
	Status model.Status
	RunID  string
	Query  string
}

// NewStore 打开 SQLite 数据库，使用默认去重策略。
func NewStore(dbPath string) (*Store, error) {
	return Open(Config{Driver: "sqlite", Path: dbPath})
}

// Open 按配置打开数据库并自动迁移数据表。
func Open(cfg Config) (*Store, error) {
	dedup := strings.ToLower(strings.TrimSpace(cfg.Dedup))
	switch dedup {
	case "":
		dedup = DedupFilenameDay
	case DedupFilenameDay, DedupAlwaysAppend:
	default:
		return nil, fmt.Errorf("unsupported dedup policy %q", cfg.Dedup)
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = defaultDBPath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dialector = sqlite.Open(path)
	case "mysql":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("mysql dsn required")
		}
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&model.AnalysisRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db, dedup: dedup, now: time.Now}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// Dedup 返回生效的去重策略。
func (s *Store) Dedup() string {
	return s.dedup
}

// SaveRecords 批量写入记录，缺少时间戳或 ID 时补齐；
// filename-day 策略下跳过已存在（含同批次内重复）的文件名+日期。
func (s *Store) SaveRecords(ctx context.Context, records []model.AnalysisRecord) (SaveResult, error) {
	res := SaveResult{}
	if len(records) == 0 {
		return res, nil
	}

	for i := range records {
		if records[i].ProcessedAt.IsZero() {
			records[i].ProcessedAt = s.now()
		}
		records[i].ProcessedDay = model.DayKey(records[i].ProcessedAt)
		if records[i].ID == "" {
			records[i].ID = uuid.NewString()
		}
	}

	toCreate := records
	if s.dedup == DedupFilenameDay {
		existing, err := s.existingKeys(ctx, records)
		if err != nil {
			return res, err
		}
		toCreate = make([]model.AnalysisRecord, 0, len(records))
		for _, rec := range records {
			key := dedupKey(rec.Filename, rec.ProcessedDay)
			if _, ok := existing[key]; ok {
				res.Skipped++
				continue
			}
			existing[key] = struct{}{}
			toCreate = append(toCreate, rec)
		}
	}

	if len(toCreate) == 0 {
		return res, nil
	}
	if err := s.db.WithContext(ctx).Create(&toCreate).Error; err != nil {
		return res, fmt.Errorf("insert records: %w", err)
	}
	res.Created = len(toCreate)
	res.Saved = toCreate
	return res, nil
}

func (s *Store) existingKeys(ctx context.Context, records []model.AnalysisRecord) (map[string]struct{}, error) {
	names := make([]string, 0, len(records))
	days := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.Filename)
		days = append(days, rec.ProcessedDay)
	}

	var rows []struct {
		Filename     string
		ProcessedDay string
	}
	if err := s.db.WithContext(ctx).Model(&model.AnalysisRecord{}).
		Select("filename", "processed_day").
		Where("filename IN ? AND processed_day IN ?", names, days).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query existing records: %w", err)
	}

	existing := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		existing[dedupKey(row.Filename, row.ProcessedDay)] = struct{}{}
	}
	return existing, nil
}

// ListRecords 返回按处理时间倒序、同一时间按分数降序的记录。
func (s *Store) ListRecords(ctx context.Context, q RecordQuery) ([]model.AnalysisRecord, error) {
	var records []model.AnalysisRecord
	if q.Offset < 0 {
		q.Offset = 0
	}

	query := applyRecordFilters(s.db.WithContext(ctx).Model(&model.AnalysisRecord{}), q).
		Order("processed_at DESC").Order("score DESC")
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// CountRecords 返回满足过滤条件的记录数量。
func (s *Store) CountRecords(ctx context.Context, q RecordQuery) (int64, error) {
	var total int64
	query := applyRecordFilters(s.db.WithContext(ctx).Model(&model.AnalysisRecord{}), q)
	if err := query.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return total, nil
}

// SearchRecords 按关键词搜索记录。
func (s *Store) SearchRecords(ctx context.Context, keyword string, limit int) ([]model.AnalysisRecord, error) {
	if strings.TrimSpace(keyword) == "" {
		return []model.AnalysisRecord{}, nil
	}
	return s.ListRecords(ctx, RecordQuery{Query: keyword, Limit: limit})
}

// GetRecord 根据 ID 获取记录。
func (s *Store) GetRecord(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &rec, nil
}

// FindRecordByName 返回姓名匹配（不区分大小写）的最新记录。
func (s *Store) FindRecordByName(ctx context.Context, name string) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	err := s.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("processed_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find record by name: %w", err)
	}
	return &rec, nil
}

// UpdateNotification 记录候选人通知结果。
func (s *Store) UpdateNotification(ctx context.Context, id string, status model.NotificationStatus) error {
	tx := s.db.WithContext(ctx).Model(&model.AnalysisRecord{}).Where("id = ?", id).Update("notification", status)
	if tx.Error != nil {
		return fmt.Errorf("update notification: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("update notification %s: %w", id, ErrNotFound)
	}
	return nil
}

func applyRecordFilters(db *gorm.DB, q RecordQuery) *gorm.DB {
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.RunID != "" {
		db = db.Where("run_id = ?", q.RunID)
	}
	if kw := strings.ToLower(strings.TrimSpace(q.Query)); kw != "" {
		like := "%" + escapeLike(kw) + "%"
		db = db.Where(
			"(LOWER(raw_text) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!' OR LOWER(filename) LIKE ? ESCAPE '!')",
			like, like, like, like,
		)
	}
	return db
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}

func dedupKey(filename, day string) string {
	return filename + "|" + day
}
