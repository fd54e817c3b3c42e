package identity

import (
	"regexp"
	"strconv"

	"resume-screener/internal/logger"
	"resume-screener/internal/model"

	"go.uber.org/zap"
)

var experiencePattern = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)

const maxExperienceYears = 50

// Identity 是从文本中识别出的联系人信息。
type Identity struct {
	Email           string
	Name            string
	Organizations   []string
	Locations       []string
	ExperienceYears int
}

// Extractor 组合邮箱正则与实体识别。
type Extractor struct {
	recognizer Recognizer
	logger     *zap.Logger
}

// NewExtractor 创建 Extractor，recognizer 为空时只抽取邮箱。
func NewExtractor(recognizer Recognizer, log *zap.Logger) *Extractor {
	return &Extractor{recognizer: recognizer, logger: logger.OrNop(log)}
}

// Identify 识别邮箱、姓名、机构与地点，识别失败时返回占位值。
func (e *Extractor) Identify(text string) Identity {
	id := Identity{Name: model.UnknownName, ExperienceYears: ExperienceYears(text)}
	if email, ok := ExtractEmail(text); ok {
		id.Email = email
	}
	if e.recognizer == nil || text == "" {
		return id
	}

	ents, err := e.recognizer.Entities(text)
	if err != nil {
		e.logger.Warn("entity recognition failed", zap.Error(err))
		return id
	}
	name, orgs, locs := annotate(ents)
	if name != "" {
		id.Name = name
	}
	id.Organizations = orgs
	id.Locations = locs
	return id
}

// ExperienceYears 取文本中 “N years” 提及的最大值，没有时为 0。
func ExperienceYears(text string) int {
	best := 0
	for _, m := range experiencePattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n > maxExperienceYears {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}
