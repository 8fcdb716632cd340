package directive

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"k8s.io/klog/v2"
)

//go:embed prompts/*.yaml
var builtin embed.FS

// Catalog 只读指令目录，构建完成后不再修改，可被多个会话并发读取
type Catalog struct {
	directives map[ID]*Directive
}

var (
	defaultCatalog *Catalog
	defaultErr     error
	defaultOnce    sync.Once
)

// Builtin 返回内置指令目录
func Builtin() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load("")
	})
	return defaultCatalog, defaultErr
}

// Load 加载内置指令，overrideDir 非空时用其中的 *.yaml 覆盖同 ID 的内置指令
// 只在启动时调用
func Load(overrideDir string) (*Catalog, error) {
	parser := NewParser()
	c := &Catalog{directives: make(map[ID]*Directive)}

	entries, err := fs.Glob(builtin, "prompts/*.yaml")
	if err != nil {
		return nil, err
	}
	for _, name := range entries {
		content, err := builtin.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read builtin directive %s: %w", name, err)
		}
		d, err := parser.Parse(content)
		if err != nil {
			return nil, fmt.Errorf("builtin directive %s: %w", name, err)
		}
		d.Path = name
		c.directives[d.ID] = d
	}

	if overrideDir != "" {
		if err := c.override(parser, overrideDir); err != nil {
			return nil, err
		}
	}

	for id := range names {
		if _, ok := c.directives[id]; !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteCatalog, id.Name())
		}
	}

	klog.V(6).Infof("指令目录加载完成: count=%d, overrideDir=%s", len(c.directives), overrideDir)
	return c, nil
}

func (c *Catalog) override(parser *Parser, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			klog.Warningf("指令覆盖目录不存在，使用内置指令: %s", dir)
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidDirective, dir)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return err
	}
	for _, path := range files {
		d, err := parser.ParseFile(path)
		if err != nil {
			return err
		}
		klog.V(6).Infof("覆盖指令: id=%d, name=%s, path=%s", int(d.ID), d.Name, path)
		c.directives[d.ID] = d
	}
	return nil
}

// Get 获取指定 ID 的指令
func (c *Catalog) Get(id ID) (*Directive, error) {
	d, ok := c.directives[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrDirectiveNotFound, int(id))
	}
	return d, nil
}

// List 列出所有指令，按 ID 升序
func (c *Catalog) List() []*Directive {
	out := make([]*Directive, 0, len(c.directives))
	for _, d := range c.directives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RoutingDescriptions 渲染可路由指令的说明，供路由策略使用
func (c *Catalog) RoutingDescriptions() string {
	lines := make([]string, 0, len(Routable()))
	for _, id := range Routable() {
		d, ok := c.directives[id]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  - Directive ID %d: %s", int(id), strings.TrimSpace(d.RoutingHint)))
	}
	return strings.Join(lines, "\n")
}

// ConductorPrompt 返回填充了可路由指令说明的路由策略
func (c *Catalog) ConductorPrompt() (string, error) {
	d, err := c.Get(Conductor)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(d.SystemPrompt, "{directives}", c.RoutingDescriptions()), nil
}
