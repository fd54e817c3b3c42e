package model

import "strings"

// UnknownName 未识别出姓名时的占位值。
const UnknownName = "unknown"

// JobCriteria 描述一次分析使用的岗位要求，分析期间只读。
// - Skills/Education: 已小写、去空白，保留输入顺序与重复项
// - JobDescription: 自由文本岗位描述，相似度策略使用
// - Cutoff: 0~100 的入选分数线
type JobCriteria struct {
	Skills         []string `yaml:"skills" json:"skills" validate:"dive,required,max=200"`
	Education      []string `yaml:"education" json:"education" validate:"dive,required,max=200"`
	JobDescription string   `yaml:"job_description" json:"job_description"`
	Cutoff         int      `yaml:"cutoff" json:"cutoff" validate:"gte=0,lte=100"`
}

// HasJobDescription 判断是否提供了岗位描述。
func (c JobCriteria) HasJobDescription() bool {
	return strings.TrimSpace(c.JobDescription) != ""
}

// ResumeDocument 表示一份上传的简历文件，只被消费一次。
type ResumeDocument struct {
	Name string
	Data []byte
}

// ExtractionOutcome 描述文本抽取结果类别。
type ExtractionOutcome string

const (
	ExtractionExtracted    ExtractionOutcome = "extracted"
	ExtractionEmpty        ExtractionOutcome = "empty"
	ExtractionFailed       ExtractionOutcome = "failed"
	ExtractionNotAttempted ExtractionOutcome = "not_attempted"
)

// ExtractedProfile 由文本抽取与身份识别得到，创建后不再修改。
type ExtractedProfile struct {
	Text             string
	Extraction       ExtractionOutcome
	ExtractionReason string
	Email            string
	Name             string
	Organizations    []string
	Locations        []string
	ExperienceYears  int
}

// HasEmail 是否识别到联系邮箱。
func (p ExtractedProfile) HasEmail() bool {
	return p.Email != ""
}
