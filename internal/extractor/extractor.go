package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"resume-screener/internal/logger"
	"resume-screener/internal/model"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNoPages 文件没有任何页面。
	ErrNoPages = errors.New("document has no pages")
	// ErrEncrypted 文件加密且无法用空密码解开。
	ErrEncrypted = errors.New("document is encrypted")
	// ErrUnknownBackend 配置了未知的 PDF 后端。
	ErrUnknownBackend = errors.New("unknown extractor backend")
)

// Config 描述抽取配置。
type Config struct {
	Backend              string `mapstructure:"backend" yaml:"backend"`
	UnipdfLicenseKey     string `mapstructure:"unipdf-license-key" yaml:"unipdf_license_key"`
	UnipdfLicenseKeyFile string `mapstructure:"unipdf-license-key-file" yaml:"unipdf_license_key_file"`
}

// Backend 把原始字节解析为逐页文本。
type Backend interface {
	Name() string
	Pages(data []byte) ([]string, error)
}

// Extraction 是一次抽取的显式结果，区分“没有文本”和“未尝试”。
type Extraction struct {
	Text    string
	Outcome model.ExtractionOutcome
	Reason  string
	Backend string
	Pages   int
}

// Extractor 按扩展名选择后端，任何错误都降级为空文本。
type Extractor struct {
	pdf    Backend
	docx   Backend
	plain  Backend
	logger *zap.Logger
}

// New 创建 Extractor，pdf 为空时使用默认的 ledongthuc 后端。
func New(pdf Backend, log *zap.Logger) *Extractor {
	if pdf == nil {
		pdf = PDFBackend{}
	}
	return &Extractor{pdf: pdf, docx: DocxBackend{}, plain: TextBackend{}, logger: logger.OrNop(log)}
}

// NewFromConfig 根据配置选择 PDF 后端。
func NewFromConfig(cfg Config, licenseKey string, log *zap.Logger) (*Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "pdf", "ledongthuc":
		return New(PDFBackend{}, log), nil
	case "unipdf":
		backend, err := NewUnipdfBackend(licenseKey)
		if err != nil {
			return nil, err
		}
		return New(backend, log), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

// Extract 抽取文档文本，从不返回错误。
func (e *Extractor) Extract(doc model.ResumeDocument) Extraction {
	if len(doc.Data) == 0 {
		return Extraction{Outcome: model.ExtractionNotAttempted, Reason: "no data"}
	}

	backend := e.backendFor(doc.Name)
	pages, err := safePages(backend, doc.Data)
	if err != nil {
		e.logger.Warn("extract text failed",
			zap.String("filename", doc.Name),
			zap.String("backend", backend.Name()),
			zap.Error(err),
		)
		return Extraction{Outcome: model.ExtractionFailed, Reason: err.Error(), Backend: backend.Name()}
	}

	text := normalize(strings.Join(pages, ""))
	res := Extraction{Text: text, Backend: backend.Name(), Pages: len(pages)}
	if strings.TrimSpace(text) == "" {
		res.Text = ""
		res.Outcome = model.ExtractionEmpty
		res.Reason = "no text layer"
		return res
	}
	res.Outcome = model.ExtractionExtracted
	return res
}

func (e *Extractor) backendFor(name string) Backend {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return e.docx
	case ".txt", ".text", ".md":
		return e.plain
	default:
		return e.pdf
	}
}

// safePages 第三方解析器遇到畸形文件可能 panic，这里转成错误。
func safePages(b Backend, data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%s backend panic: %v", b.Name(), r)
		}
	}()
	return b.Pages(data)
}

func normalize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return norm.NFKC.String(text)
}
