package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"dajtovon/internal/models"
	"dajtovon/internal/notifications"
	"dajtovon/internal/observability"
	"dajtovon/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultNotificationLimit is used when a list request names no limit.
const DefaultNotificationLimit = 5

// Event describes something that happened to a recipient's content.
type Event struct {
	Kind         string
	Actor        string
	Recipient    string
	ContentID    string
	CommentID    string
	ContentTitle string
	TargetType   string
}

// ConnResolver returns the live connections of an identity.
type ConnResolver interface {
	Resolve(identity string) []notifications.Conn
}

// Emitter turns events into notifications.
type Emitter interface {
	Emit(ctx context.Context, ev Event) (*models.Notification, error)
}

type NotificationService struct {
	repo         repository.NotificationRepository
	conns        ConnResolver
	locks        *KeyedMutex
	storeTimeout time.Duration
	defaultLimit int
	log          *observability.WSLogger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	conns ConnResolver,
	storeTimeout time.Duration,
	defaultLimit int,
) *NotificationService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultNotificationLimit
	}
	return &NotificationService{
		repo:         repo,
		conns:        conns,
		locks:        NewKeyedMutex(),
		storeTimeout: storeTimeout,
		defaultLimit: defaultLimit,
		log:          observability.NewWSLogger("notifications"),
	}
}

// Emit persists a notification for ev and pushes it to every live connection
// of the recipient. Events where the actor is the recipient are dropped and
// (nil, nil) is returned. A failed insert is returned and nothing is pushed;
// failed pushes are only logged.
func (s *NotificationService) Emit(ctx context.Context, ev Event) (_ *models.Notification, err error) {
	if ev.Actor == ev.Recipient {
		observability.NotificationsSuppressed.Inc()
		return nil, nil
	}

	ctx, span := observability.StartSpan(ctx, "notifications.emit",
		attribute.String("notification.kind", ev.Kind),
		attribute.String("notification.recipient", ev.Recipient),
	)
	defer func() { observability.EndSpan(span, err) }()

	// Persist and push under one lock so a recipient sees pushes in log order.
	unlock := s.locks.Lock(ev.Recipient)
	defer unlock()

	n := &models.Notification{
		Kind:         ev.Kind,
		Actor:        ev.Actor,
		Recipient:    ev.Recipient,
		ContentID:    ev.ContentID,
		CommentID:    ev.CommentID,
		ContentTitle: ev.ContentTitle,
		TargetType:   ev.TargetType,
	}

	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	err = s.repo.Create(storeCtx, n)
	cancel()
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	observability.NotificationsCreated.WithLabelValues(ev.Kind).Inc()

	s.push(ctx, n)
	return n, nil
}

func (s *NotificationService) push(ctx context.Context, n *models.Notification) {
	if s.conns == nil {
		return
	}
	conns := s.conns.Resolve(n.Recipient)
	if len(conns) == 0 {
		return
	}

	data, err := notifications.Encode(notifications.TypeNotification, n)
	if err != nil {
		s.log.LogError(ctx, n.Recipient, "", err, notifications.TypeNotification)
		return
	}
	for _, c := range conns {
		if err := c.Send(data); err != nil {
			warning := &models.DeliveryWarning{ConnID: c.ID(), Identity: n.Recipient, Err: err}
			s.log.LogError(ctx, n.Recipient, c.ID(), warning, notifications.TypeNotification)
			observability.NotificationDeliveries.WithLabelValues("failed").Inc()
			continue
		}
		observability.NotificationDeliveries.WithLabelValues("delivered").Inc()
	}
}

// ParseLimit reads a list limit: empty means def, "all" means no cap (0),
// anything else must be a positive integer.
func ParseLimit(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return def, nil
	case strings.EqualFold(raw, "all"):
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, models.NewValidationError("limit must be a positive integer or \"all\"")
	}
	return n, nil
}

// DefaultLimit is the cap applied when a caller names none.
func (s *NotificationService) DefaultLimit() int { return s.defaultLimit }

// List returns the recipient's notifications newest first. limit <= 0 returns all.
func (s *NotificationService) List(ctx context.Context, recipient string, limit int) ([]*models.Notification, error) {
	if recipient == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	list, err := s.repo.ListByRecipient(storeCtx, recipient, limit)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return list, nil
}

// MarkRead flags one notification as read. Only its recipient may do so and
// repeating the call is harmless.
func (s *NotificationService) MarkRead(ctx context.Context, recipient string, id uint) (*models.Notification, error) {
	if recipient == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.repo.MarkRead(storeCtx, id, recipient); err != nil {
		return nil, models.NewStoreError(err)
	}

	n, err := s.repo.GetByID(storeCtx, id)
	if err != nil {
		return nil, storeError(err, "Notification", id)
	}
	if n.Recipient != recipient {
		return nil, models.NewForbiddenError("You can only mark your own notifications as read")
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	if recipient == "" {
		return 0, models.NewUnauthorizedError("Authentication required")
	}
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	n, err := s.repo.CountUnread(storeCtx, recipient)
	if err != nil {
		return 0, models.NewStoreError(err)
	}
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	if recipient == "" {
		return 0, models.NewUnauthorizedError("Authentication required")
	}
	storeCtx, cancel := withStoreTimeout(ctx, s.storeTimeout)
	defer cancel()

	n, err := s.repo.MarkAllRead(storeCtx, recipient)
	if err != nil {
		return 0, models.NewStoreError(err)
	}
	return n, nil
}

// PruneRead deletes read notifications older than retention.
func (s *NotificationService) PruneRead(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.DeleteReadBefore(ctx, time.Now().Add(-retention))
}

// StartRetention prunes read notifications every interval until ctx ends.
// It does nothing when retention is zero.
func (s *NotificationService) StartRetention(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.PruneRead(ctx, retention)
				if err != nil {
					observability.GlobalLogger.ErrorContext(ctx, "notification retention failed", "error", err)
					continue
				}
				if n > 0 {
					observability.GlobalLogger.InfoContext(ctx, "pruned read notifications", "count", n)
				}
			}
		}
	}()
}
