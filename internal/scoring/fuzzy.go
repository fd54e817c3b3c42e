package scoring

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"resume-screener/internal/model"
)

// Fuzzy 先做子串匹配，失败时取技能与单个词元的最佳相似度，不低于阈值即匹配。
type Fuzzy struct {
	threshold int
}

// NewFuzzy 创建模糊匹配策略，threshold<=0 时使用默认值。
func NewFuzzy(threshold int) Fuzzy {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultFuzzyThreshold
	}
	return Fuzzy{threshold: threshold}
}

func (f Fuzzy) Name() string { return StrategyFuzzy }

// Threshold 返回生效的阈值。
func (f Fuzzy) Threshold() int {
	if f.threshold == 0 {
		return DefaultFuzzyThreshold
	}
	return f.threshold
}

func (f Fuzzy) Score(text string, criteria model.JobCriteria) model.ScoreResult {
	threshold := f.Threshold()
	return coverage(StrategyFuzzy, text, criteria, func(skill, lower string, tokens []string) bool {
		if strings.Contains(lower, skill) {
			return true
		}
		return bestRatio(skill, tokens) >= threshold
	})
}

func bestRatio(skill string, tokens []string) int {
	best := 0
	for _, tok := range tokens {
		if r := Ratio(skill, tok); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// Ratio 返回 0~100 的相似度：2*LCS/(len(a)+len(b))，按 rune 计。
func Ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	lcs := edlib.LCS(a, b)
	return int(math.Round(100 * 2 * float64(lcs) / float64(total)))
}
