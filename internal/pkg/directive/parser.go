package directive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	namePattern    = regexp.MustCompile(`^[a-z0-9-]+$`)
	versionPattern = regexp.MustCompile(`^v\d+(\.\d+)?(\.\d+)?$`)
)

// Parser 指令文件解析器
type Parser struct {
	maxDescriptionLen int
	maxNameLen        int
}

// NewParser 创建解析器
func NewParser() *Parser {
	return &Parser{
		maxDescriptionLen: 1024,
		maxNameLen:        64,
	}
}

// ParseFile 解析指令文件
func (p *Parser) ParseFile(path string) (*Directive, error) {
	path = filepath.Clean(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directive file: %w", err)
	}

	d, err := p.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Path = path
	return d, nil
}

// Parse 解析 YAML 内容并校验
func (p *Parser) Parse(content []byte) (*Directive, error) {
	d := &Directive{}
	if err := yaml.Unmarshal(content, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDirective, err)
	}
	if err := p.Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate 校验指令定义
func (p *Parser) Validate(d *Directive) error {
	if !d.ID.Valid() {
		return fmt.Errorf("%w: unknown id %d", ErrInvalidDirective, int(d.ID))
	}

	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(d.Name) > p.maxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, p.maxNameLen)
	}
	if !isValidName(d.Name) {
		return fmt.Errorf("%w: name must contain only lowercase letters, numbers, and hyphens, and cannot start or end with hyphen", ErrInvalidName)
	}
	// 名称与枚举绑定，防止文件把 rebuttal 的文本挂到别的 ID 上
	if d.Name != d.ID.Name() {
		return fmt.Errorf("%w: id %d must be named %q, got %q", ErrInvalidName, int(d.ID), d.ID.Name(), d.Name)
	}

	if d.Version != "" && !versionPattern.MatchString(d.Version) {
		return fmt.Errorf("%w: version must be valid semantic version (e.g., v1, v1.0, v1.0.0)", ErrInvalidDirective)
	}

	if d.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidDirective)
	}
	if len(d.Description) > p.maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidDirective, p.maxDescriptionLen)
	}

	if strings.TrimSpace(d.SystemPrompt) == "" {
		return fmt.Errorf("%w: systemPrompt is required", ErrInvalidDirective)
	}

	if d.ID.IsRoutable() && strings.TrimSpace(d.RoutingHint) == "" {
		return fmt.Errorf("%w: routingHint is required for routable directive %s", ErrInvalidDirective, d.Name)
	}

	return nil
}

// isValidName 校验 name 格式
// - 只能包含小写字母、数字、连字符
// - 不能以连字符开头或结尾
// - 不能包含连续连字符
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] == '-' || name[len(name)-1] == '-' {
		return false
	}
	if strings.Contains(name, "--") {
		return false
	}
	return namePattern.MatchString(name)
}
