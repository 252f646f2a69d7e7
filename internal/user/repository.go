package user

import (
	"context"
	"errors"
	"sync"
)

// Repository errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// Repository defines the interface for user data persistence.
type Repository interface {
	// Get retrieves a user by ID.
	Get(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email, compared case-insensitively.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create creates a new user. Returns ErrEmailTaken if the email is in use.
	Create(ctx context.Context, user *User) error

	// Update replaces an existing user record.
	Update(ctx context.Context, user *User) error

	// List returns all users in storage order.
	List(ctx context.Context) ([]*User, error)

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for local development and tests.
type InMemoryRepository struct {
	mu      sync.RWMutex
	users   map[string]*User
	byEmail map[string]string // email -> userID
	order   []string          // insertion order for List
}

// NewInMemoryRepository creates a new in-memory user repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:   make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

// Get retrieves a user by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	return u.Clone(), nil
}

// GetByEmail retrieves a user by email.
func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}

	return r.users[id].Clone(), nil
}

// Create creates a new user.
func (r *InMemoryRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(u.Email)
	if _, taken := r.byEmail[email]; taken {
		return ErrEmailTaken
	}

	stored := u.Clone()
	stored.Email = email
	r.users[u.ID] = stored
	r.byEmail[email] = u.ID
	r.order = append(r.order, u.ID)
	return nil
}

// Update replaces an existing user.
func (r *InMemoryRepository) Update(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return ErrUserNotFound
	}

	email := NormalizeEmail(u.Email)
	if email != existing.Email {
		if owner, taken := r.byEmail[email]; taken && owner != u.ID {
			return ErrEmailTaken
		}
		delete(r.byEmail, existing.Email)
		r.byEmail[email] = u.ID
	}

	stored := u.Clone()
	stored.Email = email
	r.users[u.ID] = stored
	return nil
}

// List returns all users in insertion order.
func (r *InMemoryRepository) List(_ context.Context) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.users[id].Clone())
	}
	return users, nil
}

// Ping always succeeds for the in-memory store.
func (r *InMemoryRepository) Ping(_ context.Context) error {
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
