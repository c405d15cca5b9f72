package repository

import (
	"context"
	"errors"
	"time"

	"vpnserver/internal/models"
)

var ErrSystemMessageNotFound = errors.New("system message not found")

type MessageRepository struct {
	db  DBTX
	now func() time.Time
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db, now: time.Now}
}

func (r *MessageRepository) AddUserMessage(ctx context.Context, userID string, messageType models.MessageType, message string) error {
	const query = `
		INSERT INTO user_messages (user_id, type, message, date_time)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, userID, string(messageType), message, r.now().UTC())
	return err
}

func (r *MessageRepository) UserMessages(ctx context.Context, userID string) ([]models.UserMessage, error) {
	const query = `
		SELECT id, user_id, type, message, date_time
		FROM user_messages
		WHERE user_id = $1
		ORDER BY date_time DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.UserMessage{}
	for rows.Next() {
		var m models.UserMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.Type, &m.Message, &m.DateTime); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) SystemMessages(ctx context.Context, messageType models.MessageType) ([]models.SystemMessage, error) {
	const query = `
		SELECT id, type, message, date_time
		FROM system_messages
		WHERE type = $1
		ORDER BY date_time DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(messageType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.SystemMessage{}
	for rows.Next() {
		var m models.SystemMessage
		if err := rows.Scan(&m.ID, &m.Type, &m.Message, &m.DateTime); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) AddSystemMessage(ctx context.Context, messageType models.MessageType, message string) (int64, error) {
	const query = `
		INSERT INTO system_messages (type, message, date_time)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, string(messageType), message, r.now().UTC()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *MessageRepository) DeleteSystemMessage(ctx context.Context, id int64) error {
	const query = `DELETE FROM system_messages WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSystemMessageNotFound
	}
	return nil
}
