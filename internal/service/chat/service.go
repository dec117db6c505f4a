// Package chat persists direct messages between users and reads history.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
)

const maxMessageLen = 4000

var (
	ErrAuthRequired  = apperrors.NewUnauthorized("Authentication required")
	ErrMissingFields = apperrors.NewBadRequest("Missing fields", nil)
)

type Service struct {
	users repository.UserRepository
	chat  repository.ChatRepository
	now   func() time.Time
}

func NewService(users repository.UserRepository, chat repository.ChatRepository) *Service {
	return &Service{users: users, chat: chat, now: func() time.Time { return time.Now().UTC() }}
}

// Contacts lists the users on the other side of the actor's role.
func (s *Service) Contacts(ctx context.Context, actor *model.User) ([]model.Contact, error) {
	other := model.RoleDoctor
	if actor.IsDoctor() {
		other = model.RolePatient
	}
	users, err := s.users.ListByRole(ctx, other)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	out := make([]model.Contact, 0, len(users))
	for _, u := range users {
		out = append(out, u.Contact())
	}
	return out, nil
}

func (s *Service) History(ctx context.Context, actor *model.User, otherID int64) ([]*model.ChatMessage, error) {
	if _, err := s.user(ctx, otherID); err != nil {
		return nil, err
	}
	msgs, err := s.chat.ListConversation(ctx, actor.ID, otherID)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}
	return msgs, nil
}

// Send stores a message from senderID to receiverID. A zero senderID is an
// anonymous connection.
func (s *Service) Send(ctx context.Context, senderID, receiverID int64, text string) (*model.ChatMessage, error) {
	if senderID == 0 {
		return nil, ErrAuthRequired
	}
	text = strings.TrimSpace(text)
	if receiverID == 0 || text == "" {
		return nil, ErrMissingFields
	}
	if len(text) > maxMessageLen {
		return nil, apperrors.NewBadRequest("Message too long", nil)
	}
	if _, err := s.user(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Timestamp:  s.now(),
	}
	if err := s.chat.Create(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	return msg, nil
}

func (s *Service) user(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", err)
		}
		return nil, apperrors.NewInternal(err)
	}
	return u, nil
}
