package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ethicsbot/backend/internal/model"
)

// ParticipantRepository 名册仓储接口
type ParticipantRepository interface {
	// Exists 用户名是否在名册中（忽略大小写）
	Exists(ctx context.Context, username string) (bool, error)

	// Upsert 批量写入名册，返回新增数量
	Upsert(ctx context.Context, usernames []string) (int64, error)

	// List 按用户名升序列出
	List(ctx context.Context) ([]model.Participant, error)
}

type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository 创建名册仓储
func NewParticipantRepository(db *gorm.DB) ParticipantRepository {
	return &participantRepository{db: db}
}

func (r *participantRepository) Exists(ctx context.Context, username string) (bool, error) {
	var p model.Participant
	err := r.db.WithContext(ctx).Where("username = ?", model.NormalizeUsername(username)).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *participantRepository) Upsert(ctx context.Context, usernames []string) (int64, error) {
	seen := make(map[string]struct{}, len(usernames))
	rows := make([]model.Participant, 0, len(usernames))
	for _, u := range usernames {
		name := model.NormalizeUsername(u)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		rows = append(rows, model.Participant{Username: name})
	}
	if len(rows) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
		Create(&rows)
	return result.RowsAffected, result.Error
}

func (r *participantRepository) List(ctx context.Context) ([]model.Participant, error) {
	var list []model.Participant
	err := r.db.WithContext(ctx).Order("username ASC").Find(&list).Error
	return list, err
}
