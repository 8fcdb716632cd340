package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ethicsbot/backend/internal/model"
)

// EvaluationRepository 评估记录仓储接口
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *model.Evaluation) error
	// List 按生成时间升序列出全部评估
	List(ctx context.Context) ([]model.Evaluation, error)
	ListByParticipant(ctx context.Context, username string) ([]model.Evaluation, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository 创建评估仓储
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) Create(ctx context.Context, evaluation *model.Evaluation) error {
	return r.db.WithContext(ctx).Create(evaluation).Error
}

func (r *evaluationRepository) List(ctx context.Context) ([]model.Evaluation, error) {
	var list []model.Evaluation
	err := r.db.WithContext(ctx).Order("generated_at ASC, id ASC").Find(&list).Error
	return list, err
}

func (r *evaluationRepository) ListByParticipant(ctx context.Context, username string) ([]model.Evaluation, error) {
	var list []model.Evaluation
	err := r.db.WithContext(ctx).
		Where("username = ?", model.NormalizeUsername(username)).
		Order("generated_at ASC, id ASC").
		Find(&list).Error
	return list, err
}
