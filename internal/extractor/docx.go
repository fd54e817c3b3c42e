package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nguyenthenguyen/docx"
	"golang.org/x/net/html"
)

var (
	xmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	blankRunsPattern = regexp.MustCompile(`[ \t]+`)
)

// DocxBackend 读取 word/document.xml 并去掉标签。
type DocxBackend struct{}

func (DocxBackend) Name() string { return "docx" }

func (DocxBackend) Pages(data []byte) ([]string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	return []string{docxXMLToText(r.Editable().GetContent())}, nil
}

func docxXMLToText(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = strings.ReplaceAll(content, "<w:tab/>", "\t")
	content = strings.ReplaceAll(content, "<w:br/>", "\n")
	content = xmlTagPattern.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return blankRunsPattern.ReplaceAllString(content, " ")
}

// TextBackend 直接把字节视为 UTF-8 文本。
type TextBackend struct{}

func (TextBackend) Name() string { return "text" }

func (TextBackend) Pages(data []byte) ([]string, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text file is not valid utf-8")
	}
	return []string{string(data)}, nil
}
