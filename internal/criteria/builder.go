package criteria

import (
	"errors"
	"fmt"
	"strings"

	"resume-screener/internal/model"

	"github.com/go-playground/validator/v10"
)

// DefaultCutoff 未指定分数线时的默认值。
const DefaultCutoff = 50

// ErrInvalidCriteria 岗位要求校验失败。
var ErrInvalidCriteria = errors.New("invalid job criteria")

// Config 描述岗位要求的来源。
type Config struct {
	File               string `mapstructure:"file" yaml:"file"`
	JobDescriptionFile string `mapstructure:"job-description-file" yaml:"job_description_file"`
	Cutoff             int    `mapstructure:"cutoff" yaml:"cutoff"`
}

// Request 表示一次请求中的原始岗位要求，Cutoff 为空时使用默认值。
type Request struct {
	Skills         []string `json:"skills"`
	Education      []string `json:"education"`
	JobDescription string   `json:"job_description"`
	Cutoff         *int     `json:"cutoff"`
}

// Builder 负责规范化与校验岗位要求。
type Builder struct {
	defaultCutoff int
	validate      *validator.Validate
}

// NewBuilder 创建 Builder，defaultCutoff 不在 0~100 时使用 DefaultCutoff。
func NewBuilder(defaultCutoff int) *Builder {
	if defaultCutoff < 0 || defaultCutoff > 100 {
		defaultCutoff = DefaultCutoff
	}
	return &Builder{defaultCutoff: defaultCutoff, validate: validator.New()}
}

// Build 小写、去空白、丢弃空项（保留顺序与重复），再做校验。
func (b *Builder) Build(req Request) (model.JobCriteria, error) {
	c := model.JobCriteria{
		Skills:         normalizeTerms(req.Skills),
		Education:      normalizeTerms(req.Education),
		JobDescription: strings.TrimSpace(req.JobDescription),
		Cutoff:         b.defaultCutoff,
	}
	if req.Cutoff != nil {
		c.Cutoff = *req.Cutoff
	}
	if err := b.validate.Struct(c); err != nil {
		return model.JobCriteria{}, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}
	return c, nil
}

// Merge 用 override 中非空的字段覆盖 base。
func Merge(base, override Request) Request {
	out := base
	if len(override.Skills) > 0 {
		out.Skills = override.Skills
	}
	if len(override.Education) > 0 {
		out.Education = override.Education
	}
	if strings.TrimSpace(override.JobDescription) != "" {
		out.JobDescription = override.JobDescription
	}
	if override.Cutoff != nil {
		out.Cutoff = override.Cutoff
	}
	return out
}

// SplitList 按逗号或换行拆分列表。
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if t := strings.ToLower(strings.TrimSpace(term)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
