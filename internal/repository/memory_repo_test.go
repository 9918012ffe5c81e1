package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-auth-service/internal/model"
)

func TestMemoryUserRepository_CreateAndFind(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.User{Name: "A", Email: "a@x.com", Mobile: "123", PasswordHash: "digest"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.RoleUser, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	byEmail, err := repo.FindByEmail(ctx, "A@X.com ")
	require.NoError(t, err)
	assert.Equal(t, created, byEmail)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)
}

func TestMemoryUserRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), model.ErrUserNotFound)
}

func TestMemoryUserRepository_UniqueEmail(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, model.User{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, model.User{Email: "A@x.com"})
	assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
}

func TestMemoryUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, model.User{Name: fmt.Sprintf("user-%d", i), Email: "race@x.com"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if assert.ErrorIs(t, err, model.ErrUserAlreadyExists) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
}

func TestMemoryUserRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, model.User{Email: "a@x.com"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	_, err = repo.Create(ctx, model.User{Email: "a@x.com"})
	assert.NoError(t, err)
}

func TestMemoryUserRepository_CanceledContext(t *testing.T) {
	t.Parallel()

	repo := NewMemoryUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, model.User{Email: "a@x.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, repo.Ping(ctx), context.Canceled)
}
