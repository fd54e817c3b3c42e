package model

import (
	"time"

	"gorm.io/datatypes"
)

// Status 表示筛选结论。
type Status string

const (
	StatusSelected    Status = "selected"
	StatusShortlisted Status = "shortlisted"
	StatusRejected    Status = "rejected"
)

// Passed 入选（selected 或 shortlisted）时返回 true。
func (s Status) Passed() bool {
	return s == StatusSelected || s == StatusShortlisted
}

// NotificationStatus 表示候选人通知的发送结果。
type NotificationStatus string

const (
	NotificationNone          NotificationStatus = ""
	NotificationSent          NotificationStatus = "sent"
	NotificationFailed        NotificationStatus = "failed"
	NotificationSkipped       NotificationStatus = "skipped"
	NotificationNoDestination NotificationStatus = "no-destination"
)

// ScoreResult 为一次打分的结果，Status 由判定阶段根据分数线填充。
type ScoreResult struct {
	Strategy        string
	Score           float64
	EducationPoints float64
	SkillPoints     float64
	Matched         []string
	Missing         []string
	Status          Status
}

// AnalysisRecord 是一份简历在一次分析中的结果，写入后只追加不修改。
// - ID: 记录唯一标识 (uuid)
// - RunID: 所属批次
// - ProcessedDay: 去重用的日期键 (UTC, 2006-01-02)
// - RawText: 保留原文用于展示与搜索
type AnalysisRecord struct {
	ID               string                      `gorm:"primaryKey;size:36" json:"id"`
	RunID            string                      `gorm:"index;size:36" json:"run_id"`
	Filename         string                      `gorm:"index;size:255" json:"filename"`
	Name             string                      `gorm:"size:255" json:"name"`
	Email            string                      `gorm:"size:255" json:"email"`
	Score            float64                     `json:"score"`
	Status           Status                      `gorm:"index;size:32" json:"status"`
	Strategy         string                      `gorm:"size:32" json:"strategy"`
	Matched          datatypes.JSONSlice[string] `json:"matched"`
	Missing          datatypes.JSONSlice[string] `json:"missing"`
	Organizations    datatypes.JSONSlice[string] `json:"organizations"`
	Locations        datatypes.JSONSlice[string] `json:"locations"`
	ExperienceYears  int                         `json:"experience_years"`
	Extraction       ExtractionOutcome           `gorm:"size:32" json:"extraction"`
	ExtractionReason string                      `json:"extraction_reason,omitempty"`
	Notification     NotificationStatus          `gorm:"size:32" json:"notification,omitempty"`
	RawText          string                      `gorm:"type:text" json:"raw_text,omitempty"`
	ProcessedAt      time.Time                   `gorm:"index" json:"processed_at"`
	ProcessedDay     string                      `gorm:"index;size:10" json:"-"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// TableName 沿用 candidates 表名。
func (AnalysisRecord) TableName() string {
	return "candidates"
}

// NewRecord 由文件名、抽取画像与打分结果组装记录。
func NewRecord(id, runID, filename string, profile ExtractedProfile, score ScoreResult, at time.Time) AnalysisRecord {
	return AnalysisRecord{
		ID:               id,
		RunID:            runID,
		Filename:         filename,
		Name:             profile.Name,
		Email:            profile.Email,
		Score:            score.Score,
		Status:           score.Status,
		Strategy:         score.Strategy,
		Matched:          toJSONSlice(score.Matched),
		Missing:          toJSONSlice(score.Missing),
		Organizations:    toJSONSlice(profile.Organizations),
		Locations:        toJSONSlice(profile.Locations),
		ExperienceYears:  profile.ExperienceYears,
		Extraction:       profile.Extraction,
		ExtractionReason: profile.ExtractionReason,
		RawText:          profile.Text,
		ProcessedAt:      at,
		ProcessedDay:     DayKey(at),
	}
}

// DayKey 返回去重使用的日期键。
func DayKey(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func toJSONSlice(values []string) datatypes.JSONSlice[string] {
	out := make(datatypes.JSONSlice[string], 0, len(values))
	out = append(out, values...)
	return out
}
