package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/event-service/internal/cache"
	"github.com/spec-kit/event-service/internal/dispatch"
)

// AuditService writes an audit trail of account and event activity and keeps the event
// cache coherent with writes.
type AuditService struct {
	dispatcher dispatch.Dispatcher
	logger     *zap.Logger
	cache      *cache.EventCache
}

// NewAuditService creates the service.
func NewAuditService(dispatcher dispatch.Dispatcher, logger *zap.Logger, eventCache *cache.EventCache) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		cache:      eventCache,
	}
}

// RegisterHandlers subscribes to notifications.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(dispatch.TopicUserRegistered, a.handleUserRegistered)
	a.dispatcher.Subscribe(dispatch.TopicUserLoggedIn, a.handleUserLoggedIn)
	a.dispatcher.Subscribe(dispatch.TopicUserLoginFailed, a.handleUserLoginFailed)
	for _, topic := range dispatch.EventTopics {
		a.dispatcher.Subscribe(topic, a.invalidateEvents)
		a.dispatcher.Subscribe(topic, a.handleEventChanged)
	}
}

func (a *AuditService) handleUserRegistered(_ context.Context, msg dispatch.Message) error {
	p, _ := msg.Payload.(dispatch.UserPayload)
	a.logger.Info("UserRegistered",
		zap.String("message_id", msg.ID),
		zap.String("user_id", p.UserID),
		zap.String("email", p.Email),
		zap.String("role", p.Role))
	return nil
}

func (a *AuditService) handleUserLoggedIn(_ context.Context, msg dispatch.Message) error {
	p, _ := msg.Payload.(dispatch.UserPayload)
	a.logger.Info("UserLoggedIn",
		zap.String("message_id", msg.ID),
		zap.String("user_id", p.UserID),
		zap.String("role", p.Role))
	return nil
}

func (a *AuditService) handleUserLoginFailed(_ context.Context, msg dispatch.Message) error {
	p, _ := msg.Payload.(dispatch.UserPayload)
	a.logger.Warn("UserLoginFailed",
		zap.String("message_id", msg.ID),
		zap.String("email", p.Email))
	return nil
}

func (a *AuditService) handleEventChanged(_ context.Context, msg dispatch.Message) error {
	p, _ := msg.Payload.(dispatch.EventPayload)
	a.logger.Info("EventChanged",
		zap.String("message_id", msg.ID),
		zap.String("topic", string(msg.Topic)),
		zap.Int64("event_id", p.EventID),
		zap.String("actor_id", msg.Actor.UserID))
	return nil
}

func (a *AuditService) invalidateEvents(ctx context.Context, _ dispatch.Message) error {
	a.cache.Invalidate(ctx)
	return nil
}
