package eventbus

import (
	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
)

type SessionEventType string

const (
	SessionEventStarted   SessionEventType = "SessionStarted"
	SessionEventTurn      SessionEventType = "TurnAppended"
	SessionEventReset     SessionEventType = "SessionReset"
	SessionEventExported  SessionEventType = "SessionExported"
	SessionEventEvaluated SessionEventType = "SessionEvaluated"
)

type SessionEvent struct {
	Type       SessionEventType
	Session    *domain.Session
	Turn       *conversation.Turn
	Directive  int // 生成该轮回复的指令
	Fallback   bool
	Evaluation *domain.EvaluationRecord
}

type SessionEventHandler = Handler[SessionEvent]
type SessionEventBus = Bus[SessionEventType, SessionEvent]

func NewSessionEventBus() *SessionEventBus {
	return NewBus[SessionEventType, SessionEvent]()
}
