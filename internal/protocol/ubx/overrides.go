package ubx

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseOverride 解析"name=value"形式的字段覆盖
// value支持十进制与0x前缀十六进制，有符号字段可为负值。
func ParseOverride(s string) (string, int64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" || raw == "" {
		return "", 0, fmt.Errorf("invalid override %q, want name=value", s)
	}
	value, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid override value %q: %w", raw, err)
	}
	return name, value, nil
}

// OverrideFile YAML覆盖文件结构
type OverrideFile struct {
	Overrides map[string]int64 `yaml:"overrides"`
}

// LoadOverrideFile 从YAML文件读取字段覆盖集合
func LoadOverrideFile(path string) (map[string]int64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read override file: %w", err)
	}
	var f OverrideFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("unmarshal override file: %w", err)
	}
	if f.Overrides == nil {
		f.Overrides = make(map[string]int64)
	}
	return f.Overrides, nil
}
