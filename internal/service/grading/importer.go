package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/domain"
)

const (
	ExtExport = ".json"
	ExtLegacy = ".muef"
)

// ErrUnrecognized 文件内容既不是导出记录也不是评估记录
var ErrUnrecognized = errors.New("unrecognized submission")

// Submission 待评分的一份提交：导出记录需要评估，评估记录可以直接汇总
type Submission struct {
	Path       string
	Export     *domain.ExportRecord
	Evaluation *domain.EvaluationRecord
}

// Participant 提交所属的参与者
func (s Submission) Participant() string {
	if s.Evaluation != nil {
		return s.Evaluation.Username
	}
	if s.Export != nil {
		return s.Export.Username
	}
	return ""
}

// Skipped 被跳过的文件
type Skipped struct {
	Path   string
	Reason string
}

// ScanOptions 扫描配置
type ScanOptions struct {
	Extensions []string
	PruneStray bool
}

// ScanResult 扫描结果
type ScanResult struct {
	Submissions []Submission
	Skipped     []Skipped
	Removed     []string
}

// Scan 读取目录下的提交
// 不认识的扩展名视为无关文件，PruneStray 时删除；能识别但解析失败的文件记录后跳过
func Scan(dir string, opts ScanOptions) (*ScanResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read submissions folder: %w", err)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{ExtExport, ExtLegacy}
	}

	res := &ScanResult{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(entry.Name()))

		if !contains(exts, ext) {
			if opts.PruneStray {
				if err := os.Remove(path); err != nil {
					klog.Warningf("删除无关文件失败: path=%s, err=%v", path, err)
					continue
				}
				klog.V(6).Infof("已删除无关文件: %s", path)
				res.Removed = append(res.Removed, path)
			}
			continue
		}

		sub, err := parseFile(path, ext)
		if err != nil {
			klog.Warningf("跳过无法解析的提交: path=%s, err=%v", path, err)
			res.Skipped = append(res.Skipped, Skipped{Path: path, Reason: err.Error()})
			continue
		}
		res.Submissions = append(res.Submissions, *sub)
	}

	sort.Slice(res.Submissions, func(i, j int) bool { return res.Submissions[i].Path < res.Submissions[j].Path })
	klog.V(6).Infof("提交扫描完成: dir=%s, submissions=%d, skipped=%d, removed=%d", dir, len(res.Submissions), len(res.Skipped), len(res.Removed))
	return res, nil
}

func parseFile(path, ext string) (*Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ext == ExtLegacy {
		rec, err := ParseLegacy(data)
		if err != nil {
			return nil, err
		}
		return &Submission{Path: path, Evaluation: rec}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
	}
	switch {
	case has(probe, "messages"):
		rec, err := domain.ParseExport(data)
		if err != nil {
			return nil, err
		}
		return &Submission{Path: path, Export: rec}, nil
	case has(probe, "grade_") || has(probe, "g_"):
		rec, err := ParseLegacy(data)
		if err != nil {
			return nil, err
		}
		return &Submission{Path: path, Evaluation: rec}, nil
	default:
		return nil, ErrUnrecognized
	}
}

func has(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
