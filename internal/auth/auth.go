package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionKey is the slot in the session blob holding the logged-in user ID.
const SessionKey = "user_id"

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	// Create persists a new user, ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, email, passwordHash, firstName, lastName string) (User, error)
	// ByEmail returns the user and stored password hash.
	ByEmail(ctx context.Context, email string) (User, string, error)
	ByID(ctx context.Context, id int64) (User, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) SignUp(ctx context.Context, email, password, firstName, lastName string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return User{}, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	return s.store.Create(ctx, email, string(hash), firstName, lastName)
}

func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, hash, err := s.store.ByEmail(ctx, email)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) ByID(ctx context.Context, id int64) (User, error) {
	return s.store.ByID(ctx, id)
}
