package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"resume-screener/internal/model"
)

const (
	// StrategyWeighted 子串匹配的加权覆盖率。
	StrategyWeighted = "weighted"
	// StrategyFuzzy 子串匹配失败后回退到模糊匹配。
	StrategyFuzzy = "fuzzy"
	// StrategySimilarity 简历与岗位描述的 TF-IDF 余弦相似度。
	StrategySimilarity = "similarity"

	educationPoints = 30.0
	skillPoints     = 70.0

	// DefaultFuzzyThreshold 模糊匹配的默认阈值。
	DefaultFuzzyThreshold = 85
)

// ErrUnknownStrategy 策略名无法识别。
var ErrUnknownStrategy = errors.New("unknown scoring strategy")

// Scorer 对一段简历文本按岗位要求打分，结果只依赖输入。
type Scorer interface {
	Name() string
	Score(text string, criteria model.JobCriteria) model.ScoreResult
}

// Options 配置策略构造。
type Options struct {
	FuzzyThreshold int
}

// New 按名称构造打分策略。
func New(name string, opts Options) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case StrategyWeighted:
		return Weighted{}, nil
	case StrategyFuzzy:
		return NewFuzzy(opts.FuzzyThreshold), nil
	case StrategySimilarity:
		return Similarity{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Resolve 在未指定策略时选择默认值：有岗位描述用相似度，否则用加权。
func Resolve(name string, criteria model.JobCriteria, opts Options) (Scorer, error) {
	if strings.TrimSpace(name) == "" {
		if criteria.HasJobDescription() {
			name = StrategySimilarity
		} else {
			name = StrategyWeighted
		}
	}
	return New(name, opts)
}

// Decide 根据分数线填充状态。
func Decide(result model.ScoreResult, cutoff int) model.ScoreResult {
	if result.Score >= float64(cutoff) {
		if result.Strategy == StrategySimilarity {
			result.Status = model.StatusShortlisted
		} else {
			result.Status = model.StatusSelected
		}
		return result
	}
	result.Status = model.StatusRejected
	return result
}

// Round2 四舍五入到两位小数（远离零）。
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
