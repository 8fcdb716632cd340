package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/repository"
)

// ReadRoster 读取名册 CSV 的第一列，无表头，空行跳过，统一小写
func ReadRoster(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read roster: %w", err)
		}
		if len(record) == 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")))
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out, nil
}

// ImportRoster 从 CSV 文件导入名册，返回新增数量
func ImportRoster(ctx context.Context, repo repository.ParticipantRepository, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	names, err := ReadRoster(f)
	if err != nil {
		return 0, err
	}
	added, err := repo.Upsert(ctx, names)
	if err != nil {
		return 0, fmt.Errorf("save roster: %w", err)
	}
	klog.V(6).Infof("名册导入完成: path=%s, rows=%d, added=%d", path, len(names), added)
	return added, nil
}
