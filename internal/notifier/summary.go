package notifier

import (
	"time"

	"resume-screener/internal/model"
)

const summaryTop = 5

// SummaryEntry 是摘要中的一条候选人。
type SummaryEntry struct {
	Filename string       `json:"filename"`
	Name     string       `json:"name"`
	Email    string       `json:"email,omitempty"`
	Score    float64      `json:"score"`
	Status   model.Status `json:"status"`
}

// Summary 是一次批量分析的摘要，发送给招聘方渠道。
type Summary struct {
	RunID         string                           `json:"run_id"`
	Strategy      string                           `json:"strategy"`
	Total         int                              `json:"total"`
	Passed        int                              `json:"passed"`
	Rejected      int                              `json:"rejected"`
	Created       int                              `json:"created"`
	Skipped       int                              `json:"skipped"`
	Notifications map[model.NotificationStatus]int `json:"notifications"`
	Top           []SummaryEntry                   `json:"top"`
	FinishedAt    time.Time                        `json:"finished_at"`
}

// Summarize 汇总记录，records 需已按分数降序排列。
func Summarize(runID, strategy string, records []model.AnalysisRecord, finishedAt time.Time) Summary {
	s := Summary{
		RunID:         runID,
		Strategy:      strategy,
		Total:         len(records),
		Notifications: make(map[model.NotificationStatus]int),
		Top:           []SummaryEntry{},
		FinishedAt:    finishedAt,
	}
	for _, rec := range records {
		if rec.Status.Passed() {
			s.Passed++
			if len(s.Top) < summaryTop {
				s.Top = append(s.Top, SummaryEntry{
					Filename: rec.Filename,
					Name:     rec.Name,
					Email:    rec.Email,
					Score:    rec.Score,
					Status:   rec.Status,
				})
			}
		} else {
			s.Rejected++
		}
		if rec.Notification != model.NotificationNone {
			s.Notifications[rec.Notification]++
		}
	}
	return s
}
