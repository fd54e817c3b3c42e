package scoring

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"resume-screener/internal/model"
)

var termPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Similarity 在简历与岗位描述两篇文档上构建 TF-IDF 向量并计算余弦相似度。
// 词表只来自本次调用的两篇文档。
type Similarity struct{}

func (Similarity) Name() string { return StrategySimilarity }

func (Similarity) Score(text string, criteria model.JobCriteria) model.ScoreResult {
	res := model.ScoreResult{Strategy: StrategySimilarity, Matched: []string{}, Missing: []string{}}
	if !criteria.HasJobDescription() {
		return res
	}
	res.Score = Round2(100 * Cosine(text, criteria.JobDescription))
	return res
}

// Cosine 返回两篇文档 TF-IDF 向量的余弦相似度，取值 [0,1]。
func Cosine(a, b string) float64 {
	docs := []map[string]float64{termCounts(a), termCounts(b)}

	vocab := make(map[string]int)
	for _, doc := range docs {
		for term := range doc {
			vocab[term]++
		}
	}
	if len(vocab) == 0 {
		return 0
	}

	terms := make([]string, 0, len(vocab))
	for term := range vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	vecs := make([][]float64, len(docs))
	for i, doc := range docs {
		vec := make([]float64, len(terms))
		for j, term := range terms {
			if tf := doc[term]; tf > 0 {
				idf := math.Log((1+n)/(1+float64(vocab[term]))) + 1
				vec[j] = tf * idf
			}
		}
		vecs[i] = normalize(vec)
	}

	var dot float64
	for j := range terms {
		dot += vecs[0][j] * vecs[1][j]
	}
	return math.Max(0, math.Min(1, dot))
}

// Terms 返回小写、去停用词后的词元序列。
func Terms(text string) []string {
	raw := termPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		if !IsStopWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, tok := range Terms(text) {
		counts[tok]++
	}
	return counts
}

func normalize(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
