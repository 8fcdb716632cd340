package subscriber

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/eventbus"
	"github.com/ethicsbot/backend/internal/model"
	"github.com/ethicsbot/backend/internal/repository"
)

// SessionEventSubscriber 把会话事件落库
type SessionEventSubscriber struct {
	sessionRepo    repository.SessionRepository
	evaluationRepo repository.EvaluationRepository
}

func NewSessionEventSubscriber(sessionRepo repository.SessionRepository, evaluationRepo repository.EvaluationRepository) *SessionEventSubscriber {
	return &SessionEventSubscriber{sessionRepo: sessionRepo, evaluationRepo: evaluationRepo}
}

func (s *SessionEventSubscriber) Register(bus *eventbus.SessionEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.SessionEventStarted, s.snapshot(model.SessionStatusActive))
	bus.Subscribe(eventbus.SessionEventTurn, s.snapshot(model.SessionStatusActive))
	bus.Subscribe(eventbus.SessionEventReset, s.snapshot(model.SessionStatusReset))
	bus.Subscribe(eventbus.SessionEventExported, s.snapshot(model.SessionStatusExported))
	bus.Subscribe(eventbus.SessionEventEvaluated, s.handleEvaluated)
}

func (s *SessionEventSubscriber) snapshot(status string) eventbus.SessionEventHandler {
	return func(ctx context.Context, event eventbus.SessionEvent) error {
		if event.Session == nil {
			return nil
		}
		snap := model.NewSessionSnapshot(event.Session, status)
		if err := s.sessionRepo.Save(ctx, snap); err != nil {
			return fmt.Errorf("save session snapshot %s: %w", event.Session.ID, err)
		}
		klog.V(6).Infof("会话快照已保存: type=%s, sessionID=%s, status=%s, messages=%d", event.Type, snap.ID, status, snap.Messages.Len())
		return nil
	}
}

// handleEvaluated 保存评估记录并把会话标记为已评估
func (s *SessionEventSubscriber) handleEvaluated(ctx context.Context, event eventbus.SessionEvent) error {
	if event.Evaluation == nil {
		return nil
	}
	if err := s.evaluationRepo.Create(ctx, model.NewEvaluation(event.Evaluation, model.EvaluationSourceLive)); err != nil {
		return fmt.Errorf("save evaluation for %s: %w", event.Evaluation.Username, err)
	}
	klog.V(6).Infof("评估记录已保存: username=%s, grade=%d", event.Evaluation.Username, event.Evaluation.Grade)

	if event.Session != nil {
		return s.snapshot(model.SessionStatusEvaluated)(ctx, event)
	}
	return nil
}
