package memory

import (
	"context"
	"sort"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type chatRepository struct{ *db }

func (r *chatRepository) Create(_ context.Context, msg *model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[msg.SenderID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.users[msg.ReceiverID]; !ok {
		return repository.ErrNotFound
	}
	msg.ID = r.id()
	stored := *msg
	r.messages[msg.ID] = &stored
	return nil
}

func (r *chatRepository) ListConversation(_ context.Context, a, b int64) ([]*model.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.ChatMessage{}
	for _, m := range r.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
