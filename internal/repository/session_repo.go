package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ethicsbot/backend/internal/model"
)

// SessionRepository 会话快照仓储接口
type SessionRepository interface {
	// Save 按 ID 插入或覆盖快照
	Save(ctx context.Context, session *model.Session) error

	// Get 获取快照，不存在时返回 ErrNotFound
	Get(ctx context.Context, id string) (*model.Session, error)

	// ListByParticipant 按开始时间升序列出参与者的会话
	ListByParticipant(ctx context.Context, username string) ([]model.Session, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话仓储
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Save(ctx context.Context, session *model.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) ListByParticipant(ctx context.Context, username string) ([]model.Session, error) {
	var list []model.Session
	err := r.db.WithContext(ctx).
		Where("username = ?", model.NormalizeUsername(username)).
		Order("start_time ASC").
		Find(&list).Error
	return list, err
}
