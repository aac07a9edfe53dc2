package store

import (
	"context"

	"github.com/AdamBeresnev/esport-cup/internal/notification"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationStore struct {
	db sqlx.ExtContext
}

func NewNotificationStore(db sqlx.ExtContext) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) WithTx(tx *sqlx.Tx) *NotificationStore {
	return &NotificationStore{db: tx}
}

const (
	createNotificationsQuery = `
		INSERT INTO notifications (id, user_id, type, title, message, related_id, is_read, created_at)
		VALUES (:id, :user_id, :type, :title, :message, :related_id, :is_read, :created_at)
	`
	createStaffLogQuery = `
		INSERT INTO staff_logs (id, actor_id, action, tournament_id, target_id, details, created_at)
		VALUES (:id, :actor_id, :action, :tournament_id, :target_id, :details, :created_at)
	`
)

func (s *NotificationStore) CreateNotifications(ctx context.Context, notifications []notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, s.db, createNotificationsQuery, notifications)
	return err
}

func (s *NotificationStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]notification.Notification, error) {
	var notifications []notification.Notification
	err := sqlx.SelectContext(ctx, s.db, &notifications, `
		SELECT * FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	return notifications, err
}

func (s *NotificationStore) ListByType(ctx context.Context, notificationType notification.Type, relatedID uuid.UUID) ([]notification.Notification, error) {
	var notifications []notification.Notification
	err := sqlx.SelectContext(ctx, s.db, &notifications,
		"SELECT * FROM notifications WHERE type = ? AND related_id = ? ORDER BY user_id",
		notificationType, relatedID)
	return notifications, err
}

func (s *NotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, s.db, &count,
		"SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0", userID)
	return count, err
}

// MarkRead only touches a notification owned by userID and reports whether
// one was found.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *NotificationStore) CreateStaffLog(ctx context.Context, entry *notification.StaffLog) error {
	_, err := sqlx.NamedExecContext(ctx, s.db, createStaffLogQuery, entry)
	return err
}

func (s *NotificationStore) ListStaffLogs(ctx context.Context, tournamentID uuid.UUID) ([]notification.StaffLog, error) {
	var logs []notification.StaffLog
	err := sqlx.SelectContext(ctx, s.db, &logs,
		"SELECT * FROM staff_logs WHERE tournament_id = ? ORDER BY created_at DESC, id DESC", tournamentID)
	return logs, err
}
