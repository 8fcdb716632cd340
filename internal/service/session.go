package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/ethicsbot/backend/internal/domain"
	"github.com/ethicsbot/backend/internal/eventbus"
	"github.com/ethicsbot/backend/internal/model"
	"github.com/ethicsbot/backend/internal/pkg/conversation"
	"github.com/ethicsbot/backend/internal/pkg/directive"
	"github.com/ethicsbot/backend/internal/repository"
	"github.com/ethicsbot/backend/internal/service/dispatcher"
)

var (
	// ErrUnknownParticipant 参与者不在名册中
	ErrUnknownParticipant = errors.New("participant is not on the roster")

	// ErrSessionActive 参与者已有进行中的会话
	ErrSessionActive = errors.New("participant already has an active session")

	// ErrSessionNotFound 会话不存在
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed 会话已导出或已重置
	ErrSessionClosed = errors.New("session is closed")

	// ErrEmptyMessage 消息为空
	ErrEmptyMessage = errors.New("message is empty")
)

// Now 时间来源，测试中可替换
var Now = time.Now

// Router 选择下一轮指令
type Router interface {
	Select(ctx context.Context, conv *conversation.Conversation) (directive.ID, error)
}

// Dispatcher 生成场景与回复
type Dispatcher interface {
	Initialize(ctx context.Context, conv *conversation.Conversation, occupation, topic string) (conversation.Turn, error)
	Advance(ctx context.Context, conv *conversation.Conversation, participant string, id directive.ID) dispatcher.Result
}

// Evaluator 评估导出记录
type Evaluator interface {
	Evaluate(ctx context.Context, rec *domain.ExportRecord) (*domain.EvaluationRecord, error)
}

// Reply 一轮对话的结果
type Reply struct {
	Turn      conversation.Turn `json:"turn"`
	Directive directive.ID      `json:"directive"`
	Fallback  bool              `json:"fallback"`
}

// SessionService 会话生命周期
// 每个会话由自己的锁串行驱动，不同会话之间互不影响
type SessionService struct {
	roster     repository.ParticipantRepository
	router     Router
	dispatcher Dispatcher
	evaluator  Evaluator
	bus        *eventbus.SessionEventBus

	mu       sync.Mutex
	sessions map[string]*liveSession
	active   map[string]string // participant -> session id，空字符串表示正在生成场景
}

type liveSession struct {
	mu      sync.Mutex
	session *domain.Session
	closed  bool
}

func NewSessionService(roster repository.ParticipantRepository, router Router, d Dispatcher, evaluator Evaluator, bus *eventbus.SessionEventBus) *SessionService {
	if bus == nil {
		bus = eventbus.NewSessionEventBus()
	}
	return &SessionService{
		roster:     roster,
		router:     router,
		dispatcher: d,
		evaluator:  evaluator,
		bus:        bus,
		sessions:   make(map[string]*liveSession),
		active:     make(map[string]string),
	}
}

// Begin 校验名册并生成开场场景
// 场景生成失败时不创建会话，错误可用 oracle.KindOf 分类
func (s *SessionService) Begin(ctx context.Context, participant, occupation, topic string) (*domain.Session, error) {
	name := model.NormalizeUsername(participant)
	if name == "" {
		return nil, ErrUnknownParticipant
	}
	ok, err := s.roster.Exists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check roster: %w", err)
	}
	if !ok {
		klog.V(6).Infof("[Session] 名册中不存在: participant=%s", name)
		return nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, participant)
	}

	s.mu.Lock()
	if _, busy := s.active[name]; busy {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, name)
	}
	s.active[name] = ""
	s.mu.Unlock()

	sess := &domain.Session{
		ID:           uuid.NewString(),
		Participant:  name,
		Occupation:   strings.TrimSpace(occupation),
		Topic:        strings.TrimSpace(topic),
		Conversation: conversation.New(),
	}
	if _, err := s.dispatcher.Initialize(ctx, sess.Conversation, sess.Occupation, sess.Topic); err != nil {
		s.mu.Lock()
		delete(s.active, name)
		s.mu.Unlock()
		return nil, err
	}
	sess.StartTime = Now()

	s.mu.Lock()
	s.active[name] = sess.ID
	s.sessions[sess.ID] = &liveSession{session: sess}
	s.mu.Unlock()

	klog.V(6).Infof("[Session] 会话开始: id=%s, participant=%s, occupation=%q, topic=%q", sess.ID, name, sess.Occupation, sess.Topic)
	s.publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventStarted, Session: sess})
	return cloneSession(sess), nil
}

// Respond 追加用户消息，路由并生成回复
func (s *SessionService) Respond(ctx context.Context, id, text string) (*Reply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	live, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	if live.closed {
		return nil, ErrSessionClosed
	}
	sess := live.session

	user := conversation.UserTurn(text)
	sess.Conversation.Append(user)
	s.publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventTurn, Session: sess, Turn: &user})

	choice, err := s.router.Select(ctx, sess.Conversation)
	if err != nil || !choice.IsRoutable() {
		klog.Warningf("[Session] 路由失败，使用默认指令: id=%s, err=%v", id, err)
		choice = directive.Default
	}

	res := s.dispatcher.Advance(ctx, sess.Conversation, sess.Participant, choice)
	s.publish(ctx, eventbus.SessionEvent{
		Type:      eventbus.SessionEventTurn,
		Session:   sess,
		Turn:      &res.Turn,
		Directive: int(res.Directive),
		Fallback:  res.Fallback,
	})
	return &Reply{Turn: res.Turn, Directive: res.Directive, Fallback: res.Fallback}, nil
}

// Reset 清空对话并关闭会话，参与者可以重新开始
// 已导出或已重置的会话不能再重置，导出记录保持不变
func (s *SessionService) Reset(ctx context.Context, id string) error {
	live, err := s.lookup(id)
	if err != nil {
		return err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	if live.closed {
		return fmt.Errorf("%w: %s", ErrSessionClosed, id)
	}
	live.session.Conversation.Reset()
	live.closed = true
	s.release(live.session)

	klog.V(6).Infof("[Session] 会话重置: id=%s, participant=%s", id, live.session.Participant)
	s.publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventReset, Session: live.session})
	return nil
}

// Export 盖上结束时间并返回导出记录；重复导出返回相同记录
func (s *SessionService) Export(ctx context.Context, id string) (*domain.ExportRecord, error) {
	live, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return s.exportLocked(ctx, live)
}

func (s *SessionService) exportLocked(ctx context.Context, live *liveSession) (*domain.ExportRecord, error) {
	sess := live.session
	if live.closed && !sess.Ended() {
		return nil, ErrSessionClosed
	}
	if !sess.Ended() {
		sess.EndTime = Now()
		live.closed = true
		s.release(sess)
		klog.V(6).Infof("[Session] 会话导出: id=%s, participant=%s, messages=%d", sess.ID, sess.Participant, sess.Conversation.Len())
		s.publish(ctx, eventbus.SessionEvent{Type: eventbus.SessionEventExported, Session: sess})
	}
	return sess.Export(), nil
}

// Finish 导出并评估会话，评估记录通过事件落库
func (s *SessionService) Finish(ctx context.Context, id string) (*domain.EvaluationRecord, error) {
	live, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()

	rec, err := s.exportLocked(ctx, live)
	if err != nil {
		return nil, err
	}
	evaluation, err := s.evaluator.Evaluate(ctx, rec)
	if err != nil {
		return nil, err
	}
	evaluation.SessionID = live.session.ID

	if err := s.bus.Publish(ctx, eventbus.SessionEventEvaluated, eventbus.SessionEvent{
		Type:       eventbus.SessionEventEvaluated,
		Session:    live.session,
		Evaluation: evaluation,
	}); err != nil {
		return evaluation, fmt.Errorf("persist evaluation: %w", err)
	}
	return evaluation, nil
}

// Get 返回会话副本
func (s *SessionService) Get(id string) (*domain.Session, bool, error) {
	live, err := s.lookup(id)
	if err != nil {
		return nil, false, err
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	return cloneSession(live.session), !live.closed, nil
}

func (s *SessionService) lookup(id string) (*liveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return live, nil
}

func (s *SessionService) release(sess *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[sess.Participant] == sess.ID {
		delete(s.active, sess.Participant)
	}
}

// publish 快照落库失败不影响会话
func (s *SessionService) publish(ctx context.Context, event eventbus.SessionEvent) {
	if err := s.bus.Publish(ctx, event.Type, event); err != nil {
		klog.Warningf("[Session] 事件处理失败: type=%s, err=%v", event.Type, err)
	}
}

func cloneSession(sess *domain.Session) *domain.Session {
	c := *sess
	c.Conversation = conversation.New(sess.Conversation.Turns()...)
	return &c
}
