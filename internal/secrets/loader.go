package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured 表示密钥既没有文件也没有值。
var ErrNotConfigured = errors.New("secret is not configured")

// Source 描述密钥来源，File 优先于 Value。
type Source struct {
	Name  string
	Value string
	File  string
}

// Load 读取并去除首尾空白后的密钥。
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty: %w", name, file, ErrNotConfigured)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	return secret, nil
}

// Optional 与 Load 相同，但未配置时返回空串而非错误。
func Optional(src Source) (string, error) {
	secret, err := Load(src)
	if errors.Is(err, ErrNotConfigured) && strings.TrimSpace(src.File) == "" {
		return "", nil
	}
	return secret, err
}
