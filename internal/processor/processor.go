package processor

import (
	"fmt"
	"sort"
	"time"

	"resume-screener/internal/extractor"
	"resume-screener/internal/identity"
	"resume-screener/internal/logger"
	"resume-screener/internal/model"
	"resume-screener/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const previewChars = 80

// Config 描述打分策略配置。
type Config struct {
	Strategy       string `mapstructure:"strategy" yaml:"strategy" json:"strategy"`
	FuzzyThreshold int    `mapstructure:"fuzzy-threshold" yaml:"fuzzy-threshold" json:"fuzzy_threshold"`
}

// TextExtractor 抽象文本抽取，便于测试注入。
type TextExtractor interface {
	Extract(doc model.ResumeDocument) extractor.Extraction
}

// Identifier 抽象身份识别。
type Identifier interface {
	Identify(text string) identity.Identity
}

// Options 控制单次批量分析。
// - Strategy: 为空时使用配置，配置也为空时按岗位描述自动选择
// - Progress: 每处理完一份文档回调一次
type Options struct {
	Strategy string
	Progress func(done, total int)
}

// Batch 是一次批量分析的结果，按分数降序排列。
type Batch struct {
	RunID      string
	Strategy   string
	Criteria   model.JobCriteria
	Records    []model.AnalysisRecord
	Selected   int
	Rejected   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Processor 串联 抽取 → 识别 → 打分 → 判定。
type Processor struct {
	cfg        Config
	extractor  TextExtractor
	identifier Identifier
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// New 创建 Processor。
func New(cfg Config, ext TextExtractor, ident Identifier, log *zap.Logger) *Processor {
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = scoring.DefaultFuzzyThreshold
	}
	if ext == nil {
		ext = extractor.New(nil, log)
	}
	if ident == nil {
		ident = identity.NewExtractor(nil, log)
	}
	return &Processor{
		cfg:        cfg,
		extractor:  ext,
		identifier: ident,
		logger:     logger.OrNop(log),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Scorer 解析本次使用的打分策略。
func (p *Processor) Scorer(strategy string, criteria model.JobCriteria) (scoring.Scorer, error) {
	if strategy == "" {
		strategy = p.cfg.Strategy
	}
	s, err := scoring.Resolve(strategy, criteria, scoring.Options{FuzzyThreshold: p.cfg.FuzzyThreshold})
	if err != nil {
		return nil, fmt.Errorf("resolve scorer: %w", err)
	}
	return s, nil
}

// Process 处理单份文档，抽取失败时按空文本打分，不返回错误。
func (p *Processor) Process(doc model.ResumeDocument, criteria model.JobCriteria, scorer scoring.Scorer) model.AnalysisRecord {
	return p.process("", doc, criteria, scorer)
}

// Analyze 顺序处理全部文档，输出条数与输入一致，按分数稳定降序。
func (p *Processor) Analyze(docs []model.ResumeDocument, criteria model.JobCriteria, opts Options) (Batch, error) {
	scorer, err := p.Scorer(opts.Strategy, criteria)
	if err != nil {
		return Batch{}, err
	}

	batch := Batch{
		RunID:     p.newID(),
		Strategy:  scorer.Name(),
		Criteria:  criteria,
		Records:   make([]model.AnalysisRecord, 0, len(docs)),
		StartedAt: p.now(),
	}

	for i, doc := range docs {
		rec := p.process(batch.RunID, doc, criteria, scorer)
		batch.Records = append(batch.Records, rec)
		if rec.Status.Passed() {
			batch.Selected++
		} else {
			batch.Rejected++
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(docs))
		}
	}

	SortByScore(batch.Records)
	batch.FinishedAt = p.now()

	p.logger.Info("batch analyzed",
		zap.String("run_id", batch.RunID),
		zap.String("strategy", batch.Strategy),
		zap.Int("count", len(batch.Records)),
		zap.Int("selected", batch.Selected),
		zap.Int("rejected", batch.Rejected),
	)
	return batch, nil
}

// SortByScore 按分数降序稳定排序，同分保持上传顺序。
func SortByScore(records []model.AnalysisRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}

func (p *Processor) process(runID string, doc model.ResumeDocument, criteria model.JobCriteria, scorer scoring.Scorer) model.AnalysisRecord {
	ext := p.extractor.Extract(doc)
	text := ext.Text
	if ext.Outcome != model.ExtractionExtracted {
		text = ""
	}

	profile := model.ExtractedProfile{
		Text:             text,
		Extraction:       ext.Outcome,
		ExtractionReason: ext.Reason,
		Name:             model.UnknownName,
	}
	if text != "" {
		id := p.identifier.Identify(text)
		profile.Email = id.Email
		profile.Name = id.Name
		profile.Organizations = id.Organizations
		profile.Locations = id.Locations
		profile.ExperienceYears = id.ExperienceYears
	}

	result := scoring.Decide(scorer.Score(text, criteria), criteria.Cutoff)
	rec := model.NewRecord(p.newID(), runID, doc.Name, profile, result, p.now())

	p.logger.Debug("resume scored",
		zap.String("filename", doc.Name),
		zap.String("extraction", string(ext.Outcome)),
		zap.Int("chars", len(text)),
		zap.String("preview", logger.TruncateForLog(text, previewChars)),
		zap.Float64("score", rec.Score),
		zap.String("status", string(rec.Status)),
	)
	return rec
}
