package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"resume-screener/internal/model"
)

var csvHeader = []string{
	"filename", "name", "email", "score", "status", "strategy", "matched", "missing",
	"organizations", "locations", "experience_years", "extraction", "notification", "processed_at",
}

// WriteCSV 按给定顺序输出带表头的 CSV（UTF-8，逗号分隔）。
func WriteCSV(w io.Writer, records []model.AnalysisRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Filename,
			rec.Name,
			rec.Email,
			strconv.FormatFloat(rec.Score, 'f', 2, 64),
			string(rec.Status),
			rec.Strategy,
			strings.Join(rec.Matched, "; "),
			strings.Join(rec.Missing, "; "),
			strings.Join(rec.Organizations, "; "),
			strings.Join(rec.Locations, "; "),
			strconv.Itoa(rec.ExperienceYears),
			string(rec.Extraction),
			string(rec.Notification),
			formatTime(rec.ProcessedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", rec.Filename, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
