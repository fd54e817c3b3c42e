package scoring

import (
	"errors"
	"testing"

	"resume-screener/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeighted_EndToEnd(t *testing.T) {
	criteria := model.JobCriteria{
		Skills:    []string{"python", "sql"},
		Education: []string{"b.tech"},
		Cutoff:    60,
	}

	res := Decide(Weighted{}.Score("Python developer with B.Tech degree, no database experience", criteria), criteria.Cutoff)

	assert.Equal(t, 30.0, res.EducationPoints)
	assert.Equal(t, 35.0, res.SkillPoints)
	assert.Equal(t, 65.0, res.Score)
	assert.Equal(t, model.StatusSelected, res.Status)
	assert.Equal(t, []string{"python"}, res.Matched)
	assert.Equal(t, []string{"sql"}, res.Missing)
}

func TestWeighted_EmptySkillsScoresZeroSkillPoints(t *testing.T) {
	res := Weighted{}.Score("go developer with an MSc", model.JobCriteria{Education: []string{"msc"}})

	assert.Equal(t, 0.0, res.SkillPoints)
	assert.Equal(t, 30.0, res.Score)
	assert.Empty(t, res.Missing)
}

func TestWeighted_EducationIsBinary(t *testing.T) {
	criteria := model.JobCriteria{Education: []string{"b.tech", "m.tech", "phd"}}

	both := Weighted{}.Score("b.tech and m.tech", criteria)
	none := Weighted{}.Score("self taught", criteria)

	assert.Equal(t, 30.0, both.EducationPoints)
	assert.Equal(t, 0.0, none.EducationPoints)
}

func TestWeighted_DuplicateSkillsCountIndependently(t *testing.T) {
	criteria := model.JobCriteria{Skills: []string{"go", "go", "rust"}}

	res := Weighted{}.Score("Go services", criteria)

	assert.Equal(t, []string{"go", "go"}, res.Matched)
	assert.Equal(t, []string{"rust"}, res.Missing)
	assert.Equal(t, 46.67, res.Score)
}

func TestWeighted_ScoreWithinBounds(t *testing.T) {
	criteria := model.JobCriteria{Skills: []string{"a", "b"}, Education: []string{"x"}}

	res := Weighted{}.Score("a b x", criteria)

	assert.Equal(t, 100.0, res.Score)
}

func TestWeighted_Idempotent(t *testing.T) {
	criteria := model.JobCriteria{Skills: []string{"kubernetes", "terraform", "go"}, Education: []string{"bsc"}}
	text := "Platform engineer, Go and Terraform, BSc"

	first := Weighted{}.Score(text, criteria)
	second := Weighted{}.Score(text, criteria)

	assert.Equal(t, first, second)
}

func TestFuzzy_DoesNotOverMatchAbbreviations(t *testing.T) {
	criteria := model.JobCriteria{Skills: []string{"machine learning"}}

	sub := Weighted{}.Score("Worked on ml pipelines", criteria)
	fuzzy := NewFuzzy(DefaultFuzzyThreshold).Score("Worked on ml pipelines", criteria)

	assert.Equal(t, []string{"machine learning"}, sub.Missing)
	assert.Equal(t, []string{"machine learning"}, fuzzy.Missing)
	assert.Equal(t, 0.0, fuzzy.Score)
}

func TestFuzzy_MatchesMisspelledToken(t *testing.T) {
	criteria := model.JobCriteria{Skills: []string{"python"}}

	assert.Equal(t, []string{"python"}, Weighted{}.Score("pyton scripts", criteria).Missing)

	res := NewFuzzy(0).Score("pyton scripts", criteria)
	assert.Equal(t, []string{"python"}, res.Matched)
	assert.Equal(t, 70.0, res.Score)
	assert.Equal(t, StrategyFuzzy, res.Strategy)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100, Ratio("", ""))
	assert.Equal(t, 100, Ratio("golang", "golang"))
	assert.Equal(t, 91, Ratio("python", "pyton"))
	assert.Equal(t, 22, Ratio("machine learning", "ml"))
	assert.Equal(t, 0, Ratio("abc", ""))
}

func TestSimilarity_EmptyJobDescription(t *testing.T) {
	for _, jd := range []string{"", "   \n\t"} {
		res := Similarity{}.Score("any resume text", model.JobCriteria{JobDescription: jd})
		assert.Equal(t, 0.0, res.Score)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	same := Similarity{}.Score("Senior Go engineer, Kubernetes", model.JobCriteria{JobDescription: "senior go engineer kubernetes"})
	disjoint := Similarity{}.Score("pastry chef", model.JobCriteria{JobDescription: "kernel developer"})
	stopOnly := Similarity{}.Score("the and of", model.JobCriteria{JobDescription: "which were there"})

	assert.Equal(t, 100.0, same.Score)
	assert.Equal(t, 0.0, disjoint.Score)
	assert.Equal(t, 0.0, stopOnly.Score)
}

func TestSimilarity_Deterministic(t *testing.T) {
	criteria := model.JobCriteria{JobDescription: "Backend engineer: Go, PostgreSQL, Kafka, distributed systems experience"}
	text := "Go developer. Built Kafka consumers and PostgreSQL schemas for payments."

	first := Similarity{}.Score(text, criteria)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Score, Similarity{}.Score(text, criteria).Score)
	}
	assert.Greater(t, first.Score, 0.0)
	assert.Less(t, first.Score, 100.0)
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"go", "developer", "k8s", "fan"}, Terms("The Go developer, a K8s fan is x"))
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		score    float64
		cutoff   int
		expect   model.Status
	}{
		{name: "weighted at cutoff", strategy: StrategyWeighted, score: 50, cutoff: 50, expect: model.StatusSelected},
		{name: "fuzzy below cutoff", strategy: StrategyFuzzy, score: 49.99, cutoff: 50, expect: model.StatusRejected},
		{name: "similarity above cutoff", strategy: StrategySimilarity, score: 72.5, cutoff: 50, expect: model.StatusShortlisted},
		{name: "zero cutoff", strategy: StrategySimilarity, score: 0, cutoff: 0, expect: model.StatusShortlisted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Decide(model.ScoreResult{Strategy: tt.strategy, Score: tt.score}, tt.cutoff)
			assert.Equal(t, tt.expect, res.Status)
		})
	}
}

func TestNewAndResolve(t *testing.T) {
	s, err := New("Fuzzy", Options{FuzzyThreshold: 90})
	require.NoError(t, err)
	assert.Equal(t, 90, s.(Fuzzy).Threshold())

	_, err = New("llm", Options{})
	assert.True(t, errors.Is(err, ErrUnknownStrategy))

	s, err = Resolve("", model.JobCriteria{JobDescription: "go"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategySimilarity, s.Name())

	s, err = Resolve("", model.JobCriteria{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, StrategyWeighted, s.Name())
}
