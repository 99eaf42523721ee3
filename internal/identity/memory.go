package identity

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/sakif/identity-facade/internal/apperror"
	"github.com/sakif/identity-facade/internal/model"
)

// compile-time check that *MemoryProvider implements Provider
var _ Provider = (*MemoryProvider)(nil)

// MemoryProvider keeps accounts in process memory. It backs local development
// (IDENTITY_BACKEND=memory) and the HTTP tests. Nothing survives a restart.
type MemoryProvider struct {
	mu    sync.RWMutex
	users map[model.Email]*model.User
	byID  map[string]model.Email
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		users: make(map[model.Email]*model.User),
		byID:  make(map[string]model.Email),
	}
}

// RetrieveAuthToken returns a random opaque token. There is no admin API to
// authenticate against.
func (p *MemoryProvider) RetrieveAuthToken(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (p *MemoryProvider) SignupUser(_ context.Context, user *model.User) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.users[user.Email]; exists {
		return "", apperror.UserExists()
	}

	stored := *user
	stored.ID = uuid.NewString()
	p.users[stored.Email] = &stored
	p.byID[stored.ID] = stored.Email
	return stored.ID, nil
}

// LoginUser returns a copy of the account when email and password match.
func (p *MemoryProvider) LoginUser(_ context.Context, email model.Email, password model.Password) (*model.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stored, ok := p.users[email]
	if !ok || !stored.Password.Equal(password) {
		return nil, apperror.Unauthorized()
	}
	found := *stored
	return &found, nil
}

// LogoutUser only checks that the account exists; there are no sessions.
func (p *MemoryProvider) LogoutUser(_ context.Context, userID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if _, ok := p.byID[userID]; !ok {
		return apperror.UserNotFound()
	}
	return nil
}

func (p *MemoryProvider) DeleteUser(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.byID[userID]
	if !ok {
		return apperror.UserNotFound()
	}
	delete(p.byID, userID)
	delete(p.users, email)
	return nil
}

func (p *MemoryProvider) GetUserID(_ context.Context, email model.Email) (string, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stored, ok := p.users[email]
	if !ok {
		return "", false, nil
	}
	return stored.ID, true, nil
}

// UpdateUser applies update to the account named by update.ID. The id itself
// cannot change.
func (p *MemoryProvider) UpdateUser(_ context.Context, update model.UserUpdate) error {
	if update.ID == nil {
		return apperror.InvalidInput("user id is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.byID[*update.ID]
	if !ok {
		return apperror.UserNotFound()
	}
	stored := p.users[email]

	if update.Email != nil && *update.Email != email {
		if _, taken := p.users[*update.Email]; taken {
			return apperror.UserExists()
		}
	}

	stored.Apply(update)
	if stored.Email != email {
		delete(p.users, email)
		p.users[stored.Email] = stored
		p.byID[stored.ID] = stored.Email
	}
	return nil
}
