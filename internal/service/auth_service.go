package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
	"hostel-ts/internal/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("email, name and a password of at least 6 characters are required")
	ErrEmailTaken         = errors.New("email already registered")
)

type AuthService struct {
	users         repository.UserRepository
	profiles      repository.ProfileRepository
	sessionSecret string
	ttl           time.Duration
}

func NewAuthService(users repository.UserRepository, profiles repository.ProfileRepository, sessionSecret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{users: users, profiles: profiles, sessionSecret: sessionSecret, ttl: ttl}
}

type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Hostel   string `json:"hostel"`
	Block    string `json:"block"`
	Room     string `json:"room"`
}

// Register creates the user and its profile. Self-registration is only allowed for students.
func (a *AuthService) Register(ctx context.Context, in Registration) (*models.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || len(in.Password) < utils.MinPasswordLen {
		return nil, ErrInvalidInput
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := a.users.Create(ctx, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return a.profiles.Create(ctx, models.Profile{
		ID:     u.ID,
		Name:   name,
		Email:  u.Email,
		Role:   models.RoleStudent,
		Hostel: strings.TrimSpace(in.Hostel),
		Block:  strings.TrimSpace(in.Block),
		Room:   strings.TrimSpace(in.Room),
	})
}

func (a *AuthService) Login(ctx context.Context, email, password string) (token string, user *models.User, err error) {
	u, hash, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(hash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, u.Email, a.ttl)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

// TTL is how long issued tokens stay valid.
func (a *AuthService) TTL() time.Duration { return a.ttl }
