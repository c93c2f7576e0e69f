// internal/infra/database/postgres_notification_journal.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"homework_status_bot/internal/domain/notification"

	"github.com/lib/pq"
)

// Custom errors specific to the notification journal
var ErrJournalTableMissing = errors.New("notification_journal table does not exist, apply migrations/001_notification_journal.sql")

// undefined_table, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const pqCodeUndefinedTable = pq.ErrorCode("42P01")

type PostgresNotificationJournal struct {
	db *sql.DB
}

func NewPostgresNotificationJournal(db *sql.DB) *PostgresNotificationJournal {
	return &PostgresNotificationJournal{db: db}
}

func (j *PostgresNotificationJournal) Record(ctx context.Context, r *notification.Record) error {
	query := `INSERT INTO notification_journal (kind, chat_id, text, delivered, delivery_error)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := j.db.QueryRowContext(ctx, query, r.Kind, r.ChatID, r.Text, r.Delivered, r.DeliveryError).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return classify("error recording notification", err)
	}
	return nil
}

func (j *PostgresNotificationJournal) ListRecent(ctx context.Context, limit int) ([]*notification.Record, error) {
	if limit <= 0 {
		return []*notification.Record{}, nil
	}

	query := `SELECT id, kind, chat_id, text, delivered, delivery_error, created_at
               FROM notification_journal
               ORDER BY created_at DESC, id DESC
               LIMIT $1`
	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, classify("error listing notifications", err)
	}
	defer rows.Close()

	records := make([]*notification.Record, 0, limit)
	for rows.Next() {
		r := &notification.Record{}
		if err := rows.Scan(&r.ID, &r.Kind, &r.ChatID, &r.Text, &r.Delivered, &r.DeliveryError, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return records, nil
}

// classify maps driver errors the caller can act on to package errors.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqCodeUndefinedTable {
		return fmt.Errorf("%s: %w", op, ErrJournalTableMissing)
	}
	return fmt.Errorf("%s: %w", op, err)
}
