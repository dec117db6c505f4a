package postgres

import (
	"context"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type chatRepository struct {
	BaseRepository
}

func NewChatRepository(base BaseRepository) repository.ChatRepository {
	return &chatRepository{base}
}

func (r *chatRepository) Create(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (sender_id, receiver_id, message_text, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	row := r.db.QueryRowxContext(ctx, query, msg.SenderID, msg.ReceiverID, msg.Text, msg.Timestamp)
	return wrap("create chat message", row.Scan(&msg.ID))
}

func (r *chatRepository) ListConversation(ctx context.Context, a, b int64) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, sender_id, receiver_id, message_text, timestamp
		FROM chat_messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY timestamp ASC, id ASC
	`

	msgs := []*model.ChatMessage{}
	if err := r.db.SelectContext(ctx, &msgs, query, a, b); err != nil {
		return nil, wrap("list conversation", err)
	}
	return msgs, nil
}
