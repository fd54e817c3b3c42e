package criteria

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

var blankRun = regexp.MustCompile(`[ \t\r\f\v]+`)

type fileCriteria struct {
	Skills         []string `yaml:"skills"`
	Education      []string `yaml:"education"`
	JobDescription string   `yaml:"job_description"`
	Cutoff         *int     `yaml:"cutoff"`
}

// LoadFile 读取 YAML 岗位要求文件。
func LoadFile(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, fmt.Errorf("read criteria file: %w", err)
	}
	var fc fileCriteria
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Request{}, fmt.Errorf("parse criteria file: %w", err)
	}
	return Request{
		Skills:         fc.Skills,
		Education:      fc.Education,
		JobDescription: fc.JobDescription,
		Cutoff:         fc.Cutoff,
	}, nil
}

// LoadJobDescription 读取岗位描述，.html/.htm 文件只保留可读文本。
func LoadJobDescription(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read job description: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return HTMLText(data)
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

// HTMLText 去掉 script/style 后提取 HTML 的可读文本。
func HTMLText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	doc.Find("script, style, noscript").Remove()
	doc.Find("br, p, li, h1, h2, h3, h4, h5, h6, div, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = strings.TrimSpace(blankRun.ReplaceAllString(line, " ")); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}
