package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resume-screener/internal/criteria"
	"resume-screener/internal/logger"
	"resume-screener/internal/model"
	"resume-screener/internal/processor"
	"resume-screener/internal/report"
	"resume-screener/internal/screening"
	"resume-screener/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultLimit   = 20
	maxLimit       = 100
	defaultMaxBody = 32 << 20
)

// Store 抽象存储查询接口。
type Store interface {
	ListRecords(ctx context.Context, q storage.RecordQuery) ([]model.AnalysisRecord, error)
	CountRecords(ctx context.Context, q storage.RecordQuery) (int64, error)
	GetRecord(ctx context.Context, id string) (*model.AnalysisRecord, error)
	SearchRecords(ctx context.Context, keyword string, limit int) ([]model.AnalysisRecord, error)
	FindRecordByName(ctx context.Context, name string) (*model.AnalysisRecord, error)
}

// Screener 执行一次上传筛选。
type Screener interface {
	Screen(ctx context.Context, docs []model.ResumeDocument, criteria model.JobCriteria, opts screening.Options) (screening.Result, error)
	CanPersist() bool
}

// CriteriaBuilder 规范化并校验请求中的岗位要求。
type CriteriaBuilder interface {
	Build(req criteria.Request) (model.JobCriteria, error)
}

// Scheduler 抽象调度接口。
type Scheduler interface {
	RunOnce(ctx context.Context) (int, error)
}

// Deps 汇总 handler 依赖，Store 与 Scheduler 可为空。
type Deps struct {
	Store          Store
	Screener       Screener
	Criteria       CriteriaBuilder
	Scheduler      Scheduler
	Logger         *zap.Logger
	MaxUploadBytes int64
}

// AnalyzeResponse 是一次上传分析的响应。
type AnalyzeResponse struct {
	RunID    string                 `json:"run_id"`
	Strategy string                 `json:"strategy"`
	Criteria model.JobCriteria      `json:"criteria"`
	Selected int                    `json:"selected"`
	Rejected int                    `json:"rejected"`
	Created  int                    `json:"created"`
	Skipped  int                    `json:"skipped"`
	Records  []model.AnalysisRecord `json:"records"`
}

type handler struct {
	deps   Deps
	logger *zap.Logger
}

// NewHandler 构造 gin 路由。
func NewHandler(deps Deps) http.Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxBody
	}
	if deps.Criteria == nil {
		deps.Criteria = criteria.NewBuilder(criteria.DefaultCutoff)
	}
	h := &handler{deps: deps, logger: logger.OrNop(deps.Logger).Named("api")}

	router := gin.New()
	router.Use(gin.Recovery(), h.accessLog())
	router.MaxMultipartMemory = deps.MaxUploadBytes

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	apiGroup.POST("/analyze", h.analyze)
	apiGroup.GET("/records", h.listRecords)
	apiGroup.GET("/records/search", h.searchRecords)
	apiGroup.GET("/records/export.csv", h.exportCSV)
	apiGroup.GET("/records/:id", h.getRecord)
	apiGroup.GET("/records/:id/deep-dive", h.deepDive)
	apiGroup.GET("/deep-dive", h.deepDiveByName)
	apiGroup.GET("/analytics", h.analytics)
	apiGroup.POST("/refresh", h.refresh)

	return router
}

func (h *handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (h *handler) analyze(c *gin.Context) {
	if h.deps.Screener == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "screening disabled"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.deps.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	// 兼容 resumes 与 resumes[] 两种字段名
	files := append(form.File["resumes"], form.File["resumes[]"]...)
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resumes is required"})
		return
	}

	req := criteria.Request{
		Skills:         criteria.SplitList(c.PostForm("skills")),
		Education:      criteria.SplitList(c.PostForm("education")),
		JobDescription: c.PostForm("job_description"),
	}
	if raw := strings.TrimSpace(c.PostForm("cutoff")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cutoff must be an integer"})
			return
		}
		req.Cutoff = &v
	}
	jc, err := h.deps.Criteria.Build(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	persist, err := formBool(c, "persist")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	notify, err := formBool(c, "notify")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if persist && !h.deps.Screener.CanPersist() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}

	docs := make([]model.ResumeDocument, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open " + fh.Filename})
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read " + fh.Filename})
			return
		}
		docs = append(docs, model.ResumeDocument{Name: fh.Filename, Data: data})
	}

	res, err := h.deps.Screener.Screen(c.Request.Context(), docs, jc, screening.Options{
		Strategy: c.PostForm("strategy"),
		Persist:  persist,
		Notify:   notify,
	})
	if err != nil && len(res.Batch.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("persist batch failed", zap.Error(err))
	}

	records := make([]model.AnalysisRecord, 0, len(res.Batch.Records))
	for _, rec := range res.Batch.Records {
		rec.RawText = ""
		records = append(records, rec)
	}
	c.JSON(http.StatusOK, AnalyzeResponse{
		RunID:    res.Batch.RunID,
		Strategy: res.Batch.Strategy,
		Criteria: jc,
		Selected: res.Batch.Selected,
		Rejected: res.Batch.Rejected,
		Created:  res.Save.Created,
		Skipped:  res.Save.Skipped,
		Records:  records,
	})
}

func (h *handler) listRecords(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	limit := queryInt(c, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	page := queryInt(c, "page", 1)
	q := storage.RecordQuery{
		Status: model.Status(c.Query("status")),
		RunID:  c.Query("run_id"),
		Limit:  limit + 1,
		Offset: (page - 1) * limit,
	}

	records, err := h.deps.Store.ListRecords(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := h.deps.Store.CountRecords(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	hasMore := false
	if len(records) > limit {
		hasMore = true
		records = records[:limit]
	}

	c.Header("X-Page", strconv.Itoa(page))
	c.Header("X-Limit", strconv.Itoa(limit))
	c.Header("X-Has-More", strconv.FormatBool(hasMore))
	c.Header("X-Total", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, withoutText(records))
}

func (h *handler) searchRecords(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	keyword := strings.TrimSpace(c.Query("q"))
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit := queryInt(c, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	records, err := h.deps.Store.SearchRecords(c.Request.Context(), keyword, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, withoutText(records))
}

func (h *handler) exportCSV(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	records, err := h.deps.Store.ListRecords(c.Request.Context(), storage.RecordQuery{
		Status: model.Status(c.Query("status")),
		RunID:  c.Query("run_id"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	processor.SortByScore(records)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="screening_results.csv"`)
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, records); err != nil {
		h.logger.Error("write csv failed", zap.Error(err))
	}
}

func (h *handler) getRecord(c *gin.Context) {
	rec, ok := h.lookupByID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handler) deepDive(c *gin.Context) {
	rec, ok := h.lookupByID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.NewDeepDive(*rec))
}

func (h *handler) deepDiveByName(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	rec, err := h.deps.Store.FindRecordByName(c.Request.Context(), name)
	if err != nil {
		h.writeLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, report.NewDeepDive(*rec))
}

func (h *handler) analytics(c *gin.Context) {
	if !h.requireStore(c) {
		return
	}
	records, err := h.deps.Store.ListRecords(c.Request.Context(), storage.RecordQuery{RunID: c.Query("run_id")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report.Analyze(records))
}

func (h *handler) refresh(c *gin.Context) {
	if h.deps.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inbox scheduler disabled"})
		return
	}
	created, err := h.deps.Scheduler.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *handler) lookupByID(c *gin.Context) (*model.AnalysisRecord, bool) {
	if !h.requireStore(c) {
		return nil, false
	}
	rec, err := h.deps.Store.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeLookupError(c, err)
		return nil, false
	}
	return rec, true
}

func (h *handler) writeLookupError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *handler) requireStore(c *gin.Context) bool {
	if h.deps.Store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage disabled"})
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func formBool(c *gin.Context, key string) (bool, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}

func withoutText(records []model.AnalysisRecord) []model.AnalysisRecord {
	out := make([]model.AnalysisRecord, 0, len(records))
	for _, rec := range records {
		rec.RawText = ""
		out = append(out, rec)
	}
	return out
}
