package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resume-screener/internal/logger"
	"resume-screener/internal/model"

	"go.uber.org/zap"
)

const defaultMaxFileSize = 20 << 20

var defaultExtensions = []string{".pdf", ".docx", ".txt", ".md"}

// Config 定义收件目录。
type Config struct {
	Dir          string   `mapstructure:"dir" yaml:"dir"`
	ProcessedDir string   `mapstructure:"processed-dir" yaml:"processed_dir"`
	Extensions   []string `mapstructure:"extensions" yaml:"extensions"`
	MaxFileSize  int64    `mapstructure:"max-file-size" yaml:"max_file_size"`
}

// Item 是收件目录中的一份待处理简历。
type Item struct {
	Path     string
	Document model.ResumeDocument
}

// Source 抓取待处理简历并在处理完后确认。
type Source interface {
	Fetch(ctx context.Context) ([]Item, error)
	Ack(ctx context.Context, items []Item) error
}

// DirSource 从本地目录读取简历，确认后移动到 processed 目录。
type DirSource struct {
	cfg        Config
	extensions map[string]struct{}
	now        func() time.Time
	logger     *zap.Logger
}

// NewDirSource 创建目录源，processed 目录默认在收件目录下。
func NewDirSource(cfg Config, log *zap.Logger) *DirSource {
	if cfg.ProcessedDir == "" && cfg.Dir != "" {
		cfg.ProcessedDir = filepath.Join(cfg.Dir, "processed")
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = defaultExtensions
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extSet[ext] = struct{}{}
	}
	return &DirSource{cfg: cfg, extensions: extSet, now: time.Now, logger: logger.OrNop(log)}
}

// Fetch 按文件名顺序读取目录中的简历，跳过子目录、隐藏文件与不支持的扩展名。
func (d *DirSource) Fetch(ctx context.Context) ([]Item, error) {
	if d.cfg.Dir == "" {
		return nil, fmt.Errorf("inbox dir not configured")
	}
	entries, err := os.ReadDir(d.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := d.extensions[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}

		path := filepath.Join(d.cfg.Dir, name)
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if info.Size() > d.cfg.MaxFileSize {
			d.logger.Warn("skip oversized resume", zap.String("file", name), zap.Int64("size", info.Size()))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		items = append(items, Item{Path: path, Document: model.ResumeDocument{Name: name, Data: data}})
	}

	d.logger.Debug("inbox fetched", zap.String("dir", d.cfg.Dir), zap.Int("count", len(items)))
	return items, nil
}

// Ack 把已处理的文件移动到 processed 目录，同名文件追加时间戳。
func (d *DirSource) Ack(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	if err := os.MkdirAll(d.cfg.ProcessedDir, 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(d.cfg.ProcessedDir, filepath.Base(item.Path))
		if _, err := os.Stat(target); err == nil {
			ext := filepath.Ext(target)
			stamp := d.now().UTC().Format("20060102T150405")
			target = strings.TrimSuffix(target, ext) + "-" + stamp + ext
		}
		if err := os.Rename(item.Path, target); err != nil {
			return fmt.Errorf("move %s: %w", item.Path, err)
		}
	}
	return nil
}
