package app

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmotors/backoffice/internal/model"
	"github.com/mmotors/backoffice/internal/pkg/jwtutil"
	"github.com/mmotors/backoffice/internal/repository"
)

// AuthService handles registration, credential checks and token issuance.
type AuthService struct {
	userRepo  *repository.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 2 * time.Hour
	}
	return &AuthService{userRepo: userRepo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (s *AuthService) Register(input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" || len(input.Password) < 8 {
		return nil, ErrInvalidInput
	}

	if existing, err := s.userRepo.GetByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: username taken", ErrConflict)
	}
	if existing, err := s.userRepo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: email taken", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login verifies credentials and returns a signed access token. Disabled
// accounts are rejected the same way as bad credentials.
func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: bad credentials", ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: bad credentials", ErrForbidden)
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, user.ID, user.Username, user.IsAdmin, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token failed: %w", err)
	}
	return &LoginResult{Token: token, User: *user}, nil
}

// ResolveActor maps verified token claims to a live account, refusing
// deactivated users even when their token is still valid.
func (s *AuthService) ResolveActor(userID uint) (*Actor, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%w: account unavailable", ErrForbidden)
	}
	return &Actor{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		IsActive: user.IsActive,
	}, nil
}

func (s *AuthService) GetUser(id uint) (*model.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
