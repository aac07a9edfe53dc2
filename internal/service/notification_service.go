package service

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/esport-cup/internal/apperr"
	"github.com/AdamBeresnev/esport-cup/internal/metrics"
	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/AdamBeresnev/esport-cup/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const notificationPageSize = 50

type NotificationService struct {
	db    *sqlx.DB
	store *store.NotificationStore
	log   *zap.SugaredLogger
	now   Clock
}

func NewNotificationService(db *sqlx.DB, store *store.NotificationStore, log *zap.SugaredLogger) *NotificationService {
	return &NotificationService{db: db, store: store, log: log, now: UTCNow}
}

// Message is one event to fan out.
type Message struct {
	Type      notification.Type
	Title     string
	Message   string
	RelatedID *uuid.UUID
}

// Notify writes one unread notification per distinct recipient. When tx is
// set the rows are written in the caller's transaction and land or roll back
// with the state change that caused them.
func (s *NotificationService) Notify(ctx context.Context, tx *sqlx.Tx, recipients []uuid.UUID, msg Message) error {
	st := s.store
	if tx != nil {
		st = st.WithTx(tx)
	}

	now := s.now()
	seen := make(map[uuid.UUID]bool, len(recipients))
	rows := make([]notification.Notification, 0, len(recipients))
	for _, userID := range recipients {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		rows = append(rows, notification.Notification{
			ID:        uuid.New(),
			UserID:    userID,
			Type:      msg.Type,
			Title:     msg.Title,
			Message:   msg.Message,
			RelatedID: msg.RelatedID,
			CreatedAt: now,
		})
	}

	if err := st.CreateNotifications(ctx, rows); err != nil {
		return fmt.Errorf("failed to create %s notifications: %w", msg.Type, err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(msg.Type)).Add(float64(len(rows)))
	s.log.Debugw("notifications created", "type", msg.Type, "recipients", len(rows))
	return nil
}

// LogStaffAction appends to the staff log inside the caller's transaction.
func (s *NotificationService) LogStaffAction(ctx context.Context, tx *sqlx.Tx, entry notification.StaffLog) error {
	st := s.store
	if tx != nil {
		st = st.WithTx(tx)
	}

	entry.ID = uuid.New()
	entry.CreatedAt = s.now()
	if err := st.CreateStaffLog(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write staff log %q: %w", entry.Action, err)
	}
	return nil
}

func (s *NotificationService) ListStaffLogs(ctx context.Context, tournamentID uuid.UUID) ([]notification.StaffLog, error) {
	return s.store.ListStaffLogs(ctx, tournamentID)
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]notification.Notification, error) {
	return s.store.ListForUser(ctx, userID, notificationPageSize)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	found, err := s.store.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !found {
		return apperr.NewNotFound("Notification introuvable")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.store.MarkAllRead(ctx, userID)
	return err
}
