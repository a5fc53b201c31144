package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/config"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/jobs"
)

// NotificationKind labels what a teacher is being told about.
type NotificationKind string

const (
	NotifyAssignment   NotificationKind = "assignment"
	NotifyReassignment NotificationKind = "reassignment"
	NotifyConfirmation NotificationKind = "confirmation"
	NotifyDecline      NotificationKind = "decline"
	NotifyCancellation NotificationKind = "cancellation"
	NotifyEscalation   NotificationKind = "escalation"
)

// NotificationSender delivers a single notification. Implementations live
// outside the engine (email, SMS, push); the default just logs.
type NotificationSender interface {
	Send(ctx context.Context, teacherID, requestID string, kind NotificationKind) error
}

// LogSender writes notifications to the log. Used until a real delivery
// channel is wired by the host system.
type LogSender struct {
	Logger *zap.Logger
}

// Send implements NotificationSender.
func (s *LogSender) Send(_ context.Context, teacherID, requestID string, kind NotificationKind) error {
	if s.Logger != nil {
		s.Logger.Info("notification",
			zap.String("teacher_id", teacherID),
			zap.String("request_id", requestID),
			zap.String("kind", string(kind)),
		)
	}
	return nil
}

type notifyPayload struct {
	TeacherID string
	RequestID string
	Kind      NotificationKind
}

// NotificationService dispatches notifications asynchronously. Delivery is
// fire-and-forget: failures are logged and retried by the queue but never
// surface to lifecycle transitions.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService wires the sender behind a worker queue.
func NewNotificationService(sender NotificationSender, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(notifyPayload)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		return sender.Send(ctx, payload.TeacherID, payload.RequestID, payload.Kind)
	}
	queue := jobs.NewQueue("notifications", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &NotificationService{queue: queue, logger: logger}
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Notify enqueues a notification. Errors are logged, never returned, so a
// full or stopped queue cannot block a lifecycle transition.
func (s *NotificationService) Notify(teacherID, requestID string, kind NotificationKind) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(kind),
		Payload: notifyPayload{TeacherID: teacherID, RequestID: requestID, Kind: kind},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification enqueue failed",
			zap.String("teacher_id", teacherID),
			zap.String("request_id", requestID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
