package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/config"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/middleware"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/model/entity"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
)

// ErrInvalidCredentials is returned for a wrong username or password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrLastAdmin protects the catalog from losing its last admin account.
var ErrLastAdmin = errors.New("cannot remove the last admin account")

// AuthService handles login and operator account management.
type AuthService struct {
	userRepo *repository.UserRepository
	cfg      config.AuthConfig
}

// NewAuthService creates the auth service.
func NewAuthService(userRepo *repository.UserRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg}
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *entity.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !user.CheckPassword(password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) generateToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenExpire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ListUsers returns all operator accounts.
func (s *AuthService) ListUsers(ctx context.Context) ([]entity.User, error) {
	return s.userRepo.List(ctx)
}

// CreateUser adds an operator account.
func (s *AuthService) CreateUser(ctx context.Context, username, password string, isAdmin bool) (*entity.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	if existente, err := s.userRepo.FindByUsername(ctx, username); err == nil && existente != nil {
		return nil, fmt.Errorf("username %q already exists", username)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check username: %w", err)
	}

	user := &entity.User{Username: username, IsAdmin: isAdmin}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an operator account, refusing to delete the last
// admin.
func (s *AuthService) DeleteUser(ctx context.Context, id uint) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin {
		admins, err := s.userRepo.CountAdmins(ctx)
		if err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	return s.userRepo.Delete(ctx, id)
}

// ChangePassword replaces an account's password.
func (s *AuthService) ChangePassword(ctx context.Context, id uint, password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.Update(ctx, user)
}

// EnsureAdminUser creates the default admin account on first start so the
// catalog is reachable before any user exists.
func (s *AuthService) EnsureAdminUser(ctx context.Context, username, password string) error {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	if len(users) > 0 {
		return nil
	}
	_, err = s.CreateUser(ctx, username, password, true)
	return err
}
