package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okothdev/device-order-store/internal/database"
	"github.com/okothdev/device-order-store/internal/models"
	"github.com/okothdev/device-order-store/internal/workflow"
)

// insertDrafts persists the notification fan-out of a transition inside the
// transition's own transaction.
func insertDrafts(ctx context.Context, tx *sql.Tx, drafts []workflow.Draft) error {
	for _, d := range drafts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (recipient_id, recipient_type, message, link, kind, is_read, created_at)
			 VALUES ($1, $2, $3, $4, $5, FALSE, NOW())`,
			d.RecipientID, d.RecipientType, d.Message, d.Link, d.Kind)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

// ListNotifications returns a recipient's notifications, newest first.
func ListNotifications(ctx context.Context, db *sql.DB, recipientType string, recipientID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, recipient_id, recipient_type, message, link, kind, is_read, created_at
		 FROM notifications
		 WHERE recipient_type = $1 AND recipient_id = $2
		   AND ($3 = FALSE OR is_read = FALSE)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4`,
		recipientType, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.RecipientType, &n.Message,
			&n.Link, &n.Kind, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return notifications, nil
}

func UnreadCount(ctx context.Context, db *sql.DB, recipientType string, recipientID int64) (int64, error) {
	var count int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications
		 WHERE recipient_type = $1 AND recipient_id = $2 AND is_read = FALSE`,
		recipientType, recipientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

func MarkAllRead(ctx context.Context, db *sql.DB, recipientType string, recipientID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE
		 WHERE recipient_type = $1 AND recipient_id = $2 AND is_read = FALSE`,
		recipientType, recipientID)
	if err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	return nil
}

// DeleteNotification removes one notification, scoped to its recipient so a
// recipient can only delete their own.
func DeleteNotification(ctx context.Context, db *sql.DB, recipientType string, recipientID, id int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM notifications
		 WHERE id = $1 AND recipient_type = $2 AND recipient_id = $3`,
		id, recipientType, recipientID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrNotificationNotFound
	}
	return nil
}

func ClearNotifications(ctx context.Context, db *sql.DB, recipientType string, recipientID int64) error {
	_, err := db.ExecContext(ctx,
		`DELETE FROM notifications WHERE recipient_type = $1 AND recipient_id = $2`,
		recipientType, recipientID)
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
