package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
)

// NotificationService observes lifecycle events for operational
// visibility. OTP delivery itself happens inline in AccountService;
// this layer only reacts to the facts.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleEvent)
	n.dispatcher.Subscribe(events.EventUserVerified, n.handleEvent)
	n.dispatcher.Subscribe(events.EventOtpIssued, n.handleEvent)
	n.dispatcher.Subscribe(events.EventUserLoggedIn, n.handleEvent)
	n.dispatcher.Subscribe(events.EventUserLoggedOut, n.handleEvent)
	n.dispatcher.Subscribe(events.EventPasswordChanged, n.handleEvent)
}

func (n *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("user_id", event.UserID),
		zap.String("email", event.Email),
		zap.Any("payload", event.Payload))
	return nil
}
