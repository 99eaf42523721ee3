package identity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/model"
)

func newTestUser(t *testing.T, rawEmail string) *model.User {
	t.Helper()
	email, err := model.NewEmail(rawEmail)
	require.NoError(t, err)
	password, err := model.NewPassword("Password1!")
	require.NoError(t, err)
	return model.NewUser(rawEmail, email, password, "Test", "User", nil)
}

func TestMemoryProvider_Lifecycle(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()
	user := newTestUser(t, "dana@example.com")

	id, err := p.SignupUser(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Empty(t, user.ID, "caller's user must not be mutated")

	_, err = p.SignupUser(ctx, newTestUser(t, "dana@example.com"))
	assert.Equal(t, apperror.KindUserExists, apperror.KindOf(err))

	got, found, err := p.GetUserID(ctx, user.Email)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got)

	loggedIn, err := p.LoginUser(ctx, user.Email, user.Password)
	require.NoError(t, err)
	assert.Equal(t, id, loggedIn.ID)

	wrong, _ := model.NewPassword("Different2@")
	_, err = p.LoginUser(ctx, user.Email, wrong)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))

	require.NoError(t, p.DeleteUser(ctx, id))
	assert.Equal(t, apperror.KindUserNotFound, apperror.KindOf(p.DeleteUser(ctx, id)))

	_, found, err = p.GetUserID(ctx, user.Email)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryProvider_UpdateUser(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	id, err := p.SignupUser(ctx, newTestUser(t, "lee@example.com"))
	require.NoError(t, err)
	_, err = p.SignupUser(ctx, newTestUser(t, "taken@example.com"))
	require.NoError(t, err)

	taken, _ := model.NewEmail("taken@example.com")
	err = p.UpdateUser(ctx, model.UserUpdate{ID: &id, Email: &taken})
	assert.Equal(t, apperror.KindUserExists, apperror.KindOf(err))

	moved, _ := model.NewEmail("lee.new@example.com")
	require.NoError(t, p.UpdateUser(ctx, model.UserUpdate{ID: &id, Email: &moved}))

	got, found, err := p.GetUserID(ctx, moved)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got)

	old, _ := model.NewEmail("lee@example.com")
	_, found, _ = p.GetUserID(ctx, old)
	assert.False(t, found)

	missing := "nope"
	assert.Equal(t, apperror.KindUserNotFound, apperror.KindOf(p.UpdateUser(ctx, model.UserUpdate{ID: &missing})))
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(p.UpdateUser(ctx, model.UserUpdate{})))
}

func TestGuarded_WriteExcludesReaders(t *testing.T) {
	g := NewGuarded(NewMemoryProvider())
	ctx := context.Background()

	var inWrite atomic.Bool
	var overlapped atomic.Bool

	writeStarted := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = g.Write(ctx, func(context.Context, Provider) error {
			inWrite.Store(true)
			close(writeStarted)
			time.Sleep(50 * time.Millisecond)
			inWrite.Store(false)
			return nil
		})
	}()

	<-writeStarted
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Read(ctx, func(context.Context, Provider) error {
				if inWrite.Load() {
					overlapped.Store(true)
				}
				return nil
			})
		}()
	}
	wg.Wait()

	assert.False(t, overlapped.Load(), "a reader ran while the writer held the lock")
}

func TestGuarded_ReadersOverlap(t *testing.T) {
	g := NewGuarded(NewMemoryProvider())
	ctx := context.Background()

	// Both readers block until the other has entered; this only completes if
	// the read lock is shared.
	var entered sync.WaitGroup
	entered.Add(2)
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Read(ctx, func(context.Context, Provider) error {
				entered.Done()
				entered.Wait()
				return nil
			})
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent readers did not overlap")
	}
}

func TestGuarded_PropagatesError(t *testing.T) {
	g := NewGuarded(NewMemoryProvider())
	sentinel := errors.New("boom")

	err := g.Write(context.Background(), func(context.Context, Provider) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}
