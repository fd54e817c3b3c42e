package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/common/license"
	pdfextract "github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
)

// UnipdfBackend 使用 unipdf 抽取，需要 metered license key。
type UnipdfBackend struct{}

// NewUnipdfBackend 设置 license 并创建后端。
func NewUnipdfBackend(licenseKey string) (*UnipdfBackend, error) {
	key := strings.TrimSpace(licenseKey)
	if key == "" {
		return nil, fmt.Errorf("unipdf backend requires a license key")
	}
	if err := license.SetMeteredKey(key); err != nil {
		return nil, fmt.Errorf("set unipdf license: %w", err)
	}
	return &UnipdfBackend{}, nil
}

func (*UnipdfBackend) Name() string { return "unipdf" }

func (*UnipdfBackend) Pages(data []byte) ([]string, error) {
	reader, err := pdfmodel.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("check encryption: %w", err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil || !ok {
			return nil, ErrEncrypted
		}
	}

	n, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("get page count: %w", err)
	}
	if n == 0 {
		return nil, ErrNoPages
	}

	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("get page %d: %w", i, err)
		}
		ex, err := pdfextract.New(page)
		if err != nil {
			return nil, fmt.Errorf("new extractor for page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
