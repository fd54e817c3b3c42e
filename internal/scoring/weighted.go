package scoring

import (
	"strings"

	"resume-screener/internal/model"
)

type skillMatcher func(skill, text string, tokens []string) bool

// Weighted 教育 30 分 + 技能覆盖率 70 分，技能按子串匹配。
type Weighted struct{}

func (Weighted) Name() string { return StrategyWeighted }

func (Weighted) Score(text string, criteria model.JobCriteria) model.ScoreResult {
	return coverage(StrategyWeighted, text, criteria, containsSkill)
}

func containsSkill(skill, text string, _ []string) bool {
	return strings.Contains(text, skill)
}

func coverage(strategy, text string, criteria model.JobCriteria, match skillMatcher) model.ScoreResult {
	lower := strings.ToLower(text)
	tokens := strings.Fields(lower)

	res := model.ScoreResult{
		Strategy: strategy,
		Matched:  []string{},
		Missing:  []string{},
	}

	for _, term := range criteria.Education {
		term = strings.ToLower(term)
		if term != "" && strings.Contains(lower, term) {
			res.EducationPoints = educationPoints
			break
		}
	}

	// 重复技能各自计数，不去重
	for _, skill := range criteria.Skills {
		if skill != "" && match(strings.ToLower(skill), lower, tokens) {
			res.Matched = append(res.Matched, skill)
		} else {
			res.Missing = append(res.Missing, skill)
		}
	}
	if total := len(criteria.Skills); total > 0 {
		res.SkillPoints = Round2(skillPoints * float64(len(res.Matched)) / float64(total))
	}

	res.Score = Round2(res.EducationPoints + skillPoints*fraction(len(res.Matched), len(criteria.Skills)))
	return res
}

func fraction(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
