package report

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-screener/internal/model"
)

const (
	histogramBins   = 10
	topKeywordCount = 15
	minKeywordLen   = 6
)

// Bin 是分数直方图中的一个区间 [Lower, Upper)，最后一个区间包含 100。
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// KeywordCount 是关键词及其出现次数。
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Analytics 是一批记录的统计视图。
type Analytics struct {
	Total       int                  `json:"total"`
	Average     float64              `json:"average"`
	Max         float64              `json:"max"`
	Min         float64              `json:"min"`
	Histogram   []Bin                `json:"histogram"`
	Statuses    map[model.Status]int `json:"statuses"`
	TopKeywords []KeywordCount       `json:"top_keywords"`
}

// Analyze 计算分数分布、状态分布和高频关键词。
func Analyze(records []model.AnalysisRecord) Analytics {
	a := Analytics{
		Total:     len(records),
		Histogram: make([]Bin, histogramBins),
		Statuses:  make(map[model.Status]int),
	}
	width := 100.0 / histogramBins
	for i := range a.Histogram {
		a.Histogram[i] = Bin{Lower: float64(i) * width, Upper: float64(i+1) * width}
	}
	if len(records) == 0 {
		a.TopKeywords = []KeywordCount{}
		return a
	}

	var sum float64
	a.Min = math.Inf(1)
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		sum += rec.Score
		a.Max = math.Max(a.Max, rec.Score)
		a.Min = math.Min(a.Min, rec.Score)
		a.Histogram[binIndex(rec.Score, width)].Count++
		a.Statuses[rec.Status]++
		texts = append(texts, rec.RawText)
	}
	a.Average = math.Round(sum/float64(len(records))*100) / 100
	a.TopKeywords = TopKeywords(strings.Join(texts, " "), topKeywordCount)
	return a
}

// TopKeywords 统计按空白切分后长度大于 5 的纯字母词，按次数降序，同次数按首次出现顺序。
// 带标点或数字的词整体丢弃，不拆分。
func TopKeywords(text string, n int) []KeywordCount {
	counts := make(map[string]int)
	var order []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) < minKeywordLen || !isAlpha(w) {
			continue
		}
		w = strings.ToLower(w)
		if _, seen := counts[w]; !seen {
			order = append(order, w)
		}
		counts[w]++
	}

	out := make([]KeywordCount, 0, len(order))
	for _, w := range order {
		out = append(out, KeywordCount{Word: w, Count: counts[w]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func isAlpha(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func binIndex(score, width float64) int {
	idx := int(score / width)
	if idx < 0 {
		return 0
	}
	if idx >= histogramBins {
		return histogramBins - 1
	}
	return idx
}
