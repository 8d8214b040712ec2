package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"kredit-api/models"
	"kredit-api/repository"
	"kredit-api/session"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string          `json:"username" validate:"required"`
	Password string          `json:"password" validate:"required"`
	Name     string          `json:"name" validate:"required"`
	Email    string          `json:"email" validate:"required"`
	Role     models.UserRole `json:"role" validate:"required,oneof=consumer marketing marketing_supervisor backoffice_admin"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

type AuthService struct {
	users      repository.UserRepository
	tokens     *session.Manager
	bcryptCost int
}

func NewAuthService(users repository.UserRepository, tokens *session.Manager, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Role" && fe.Tag() == "oneof" {
					return nil, validationError("invalid role")
				}
			}
		}
		return nil, validationError("all fields are required")
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, unexpectedError("failed to register user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, unexpectedError("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, unexpectedError("failed to create user", err)
	}

	return s.respond(user)
}

// Login checks credentials. Unknown usernames and wrong passwords fail with
// the same error.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return nil, validationError("username and password are required")
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, unexpectedError("failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.respond(user)
}

// VerifyToken never fails loudly: any invalid token yields ok == false.
func (s *AuthService) VerifyToken(token string) (*session.Claims, bool) {
	return s.tokens.Verify(token)
}

// GetProfile loads the public view of the authenticated actor.
func (s *AuthService) GetProfile(ctx context.Context, actor *session.Claims) (*models.PublicUser, error) {
	if actor == nil {
		return nil, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, unexpectedError("failed to load profile", err)
	}
	public := user.Public()
	return &public, nil
}

func (s *AuthService) respond(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, unexpectedError("failed to generate token", err)
	}
	return &AuthResponse{Token: token, User: user.Public()}, nil
}
