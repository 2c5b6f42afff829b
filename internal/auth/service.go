package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/users"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

const (
	minPasswordLen = 8
	devUserEmail   = "dev@coach-hub.local"
	devTTL         = 30 * 24 * time.Hour
)

// Service — сервис авторизации
type Service struct {
	config  *config.Config
	storage storage.Storage
}

func NewService(cfg *config.Config, storage storage.Storage) *Service {
	return &Service{config: cfg, storage: storage}
}

// Register создаёт учётную запись и сразу выдаёт токен
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidRequest)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRequest, minPasswordLen)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	switch req.Role {
	case storage.RoleAgency, storage.RoleTrainer, storage.RoleNutritionist, storage.RoleAthlete:
	default:
		return nil, fmt.Errorf("%w: role must be agency, trainer, nutritionist or athlete", ErrInvalidRequest)
	}

	if req.AgencyID != nil {
		if req.Role == storage.RoleAgency {
			return nil, fmt.Errorf("%w: an agency cannot belong to an agency", ErrInvalidRequest)
		}
		agency, err := s.storage.GetUser(ctx, *req.AgencyID)
		if errors.Is(err, storage.ErrNotFound) || (err == nil && agency.Role != storage.RoleAgency) {
			return nil, fmt.Errorf("%w: agency_id must reference an agency", ErrInvalidRequest)
		}
		if err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &storage.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         req.Role,
		AgencyID:     req.AgencyID,
	}
	if err := s.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return s.issue(user, s.ttl())
}

// Login проверяет пароль и выдаёт токен
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	user, err := s.storage.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user, s.ttl())
}

// SignInDev — dev-авторизация без пароля, выдает JWT на 30 дней для admin-пользователя
func (s *Service) SignInDev(ctx context.Context) (*TokenResponse, error) {
	user, err := s.storage.GetUserByEmail(ctx, devUserEmail)
	if errors.Is(err, storage.ErrNotFound) {
		user = &storage.User{Email: devUserEmail, Name: "Dev Admin", Role: storage.RoleAdmin}
		if err = s.storage.CreateUser(ctx, user); errors.Is(err, storage.ErrConflict) {
			user, err = s.storage.GetUserByEmail(ctx, devUserEmail)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure dev user: %w", err)
	}
	return s.issue(user, devTTL)
}

func (s *Service) issue(user *storage.User, ttl time.Duration) (*TokenResponse, error) {
	token, err := s.generateJWTWithTTL(user.ID.String(), ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		User:        users.ToDTO(*user),
	}, nil
}

func (s *Service) ttl() time.Duration {
	return time.Duration(s.config.JWTTTLMinutes) * time.Minute
}

func (s *Service) bcryptCost() int {
	if s.config.BcryptCost < bcrypt.MinCost || s.config.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.config.BcryptCost
}

func (s *Service) generateJWTWithTTL(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub": userID,
		"iss": s.config.JWTIssuer,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT — проверка JWT токена, возвращает sub
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer))

	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", ErrInvalidToken
		}
		return sub, nil
	}

	return "", ErrInvalidToken
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
