package memory

import (
	"context"
	"sort"
	"time"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
)

type userRepository struct{ *db }

func (r *userRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
		if user.Email != nil && u.Email != nil && *u.Email == *user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	user.ID = r.id()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *userRepository) Get(_ context.Context, id int64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *userRepository) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) ListByRole(_ context.Context, role model.Role) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*model.User{}
	for _, u := range r.users {
		if u.Role == role {
			copied := *u
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

// Delete cascades to every row owned by or addressed to the user.
func (r *userRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	delete(r.profiles, id)
	for k, m := range r.medicines {
		if m.PatientID == id {
			delete(r.medicines, k)
		}
	}
	for k, v := range r.vitals {
		if v.PatientID == id {
			delete(r.vitals, k)
		}
	}
	for k, f := range r.files {
		if f.PatientID == id {
			delete(r.files, k)
		}
	}
	for k, a := range r.appointments {
		if a.Involves(id) {
			delete(r.appointments, k)
		}
	}
	for k, m := range r.messages {
		if m.SenderID == id || m.ReceiverID == id {
			delete(r.messages, k)
		}
	}
	return nil
}
