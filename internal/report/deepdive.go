package report

import "resume-screener/internal/model"

const deepDiveKeywords = 20

// DeepDive 是单个候选人的详情视图。
type DeepDive struct {
	Record        model.AnalysisRecord `json:"record"`
	Organizations []string             `json:"organizations"`
	Locations     []string             `json:"locations"`
	Keywords      []KeywordCount       `json:"keywords"`
	Chars         int                  `json:"chars"`
}

// NewDeepDive 汇总记录的实体与高频词。
func NewDeepDive(rec model.AnalysisRecord) DeepDive {
	orgs := append([]string{}, rec.Organizations...)
	locs := append([]string{}, rec.Locations...)
	return DeepDive{
		Record:        rec,
		Organizations: orgs,
		Locations:     locs,
		Keywords:      TopKeywords(rec.RawText, deepDiveKeywords),
		Chars:         len([]rune(rec.RawText)),
	}
}
