package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chill-backend/internal/models"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, user_id, role, content, message_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	msg.ID = uuid.New()

	return r.pool.QueryRow(ctx, query,
		msg.ID, msg.UserID, msg.Role, msg.Content, msg.MessageType,
	).Scan(&msg.CreatedAt)
}

// ListRecent returns up to limit messages for a user, newest first.
func (r *MessageRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	query := `SELECT id, user_id, role, content, message_type, created_at
		FROM messages WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`

	return r.list(ctx, query, userID, limit)
}

// ListOldest returns up to limit messages for a user in chronological order.
func (r *MessageRepo) ListOldest(ctx context.Context, userID uuid.UUID, limit int) ([]models.Message, error) {
	query := `SELECT id, user_id, role, content, message_type, created_at
		FROM messages WHERE user_id = $1
		ORDER BY created_at ASC LIMIT $2`

	return r.list(ctx, query, userID, limit)
}

func (r *MessageRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM messages WHERE user_id = $1", userID)
	return err
}

func (r *MessageRepo) list(ctx context.Context, query string, userID uuid.UUID, limit int) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if scanErr := rows.Scan(
			&msg.ID, &msg.UserID, &msg.Role, &msg.Content, &msg.MessageType, &msg.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
