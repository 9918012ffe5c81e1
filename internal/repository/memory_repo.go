package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-auth-service/internal/model"
)

// MemoryUserRepository keeps users in process memory. It is used for
// STORE_DRIVER=memory and in tests; contents are lost on restart.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	usersByID  map[string]model.User
	idsByEmail map[string]string
	now        func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		usersByID:  map[string]model.User{},
		idsByEmail: map[string]string{},
		now:        time.Now,
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	key := emailKey(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.idsByEmail[key]; exists {
		return model.User{}, model.ErrUserAlreadyExists
	}

	now := r.now().UTC()
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	u.CreatedAt = now
	u.UpdatedAt = now

	r.usersByID[u.ID] = u
	r.idsByEmail[key] = u.ID

	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.idsByEmail[emailKey(email)]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}

	return r.usersByID[id], nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByID[id]
	if !exists {
		return model.User{}, model.ErrUserNotFound
	}

	return user, nil
}

// Delete removes a user. There is no HTTP route for it; tests use it to
// simulate administrative removal.
func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.usersByID[id]
	if !exists {
		return model.ErrUserNotFound
	}

	delete(r.usersByID, id)
	delete(r.idsByEmail, emailKey(user.Email))
	return nil
}

func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryUserRepository) Close() {}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
