package services

import (
	"context"
	"errors"
	"log"
	"regexp"

	"github.com/google/uuid"

	"chill-backend/internal/identity"
	"chill-backend/internal/models"
)

// identityGateway is the slice of the hosted auth provider this service
// uses. Account creation and password checks happen entirely on the
// provider; nothing is hashed or signed locally.
type identityGateway interface {
	AdminCreateUser(ctx context.Context, email, password, name string) (*identity.AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error)
}

type profileStore interface {
	Upsert(ctx context.Context, userID uuid.UUID, name string) error
	GetByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

type AuthService struct {
	gateway  identityGateway
	profiles profileStore
}

func NewAuthService(gateway identityGateway, profiles profileStore) *AuthService {
	return &AuthService{
		gateway:  gateway,
		profiles: profiles,
	}
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	// Validate all fields at once, before any provider call
	fieldErrors := make(map[string]string)

	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if !emailRegex.MatchString(req.Email) {
		fieldErrors["email"] = "Invalid email format"
	}
	if len(req.Password) < 6 {
		fieldErrors["password"] = "Password must be at least 6 characters"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	user, err := s.gateway.AdminCreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, providerOr(err)
	}

	session, err := s.gateway.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, providerOr(err)
	}

	// Best-effort: a missing profile row falls back to "User" on login.
	if err := s.profiles.Upsert(ctx, user.ID, req.Name); err != nil {
		log.Printf("Failed to create profile for user %s: %v", user.ID, err)
	}

	return &models.AuthResponse{
		User: models.UserSummary{
			ID:    user.ID,
			Email: user.Email,
			Name:  req.Name,
		},
		Token: session.AccessToken,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	fieldErrors := make(map[string]string)
	if req.Email == "" {
		fieldErrors["email"] = "Email is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	session, err := s.gateway.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) {
			return nil, &UnauthorizedError{Message: "Invalid credentials"}
		}
		return nil, err
	}

	name := "User"
	if profile, err := s.profiles.GetByID(ctx, session.User.ID); err == nil {
		name = profile.Name
	}

	return &models.AuthResponse{
		User: models.UserSummary{
			ID:    session.User.ID,
			Email: session.User.Email,
			Name:  name,
		},
		Token: session.AccessToken,
	}, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, &NotFoundError{Message: "Profile not found"}
	}
	return profile, nil
}

// providerOr maps provider-reported failures (duplicate email, weak
// password) to a 400 with the provider's message, and anything else to an
// internal error.
func providerOr(err error) error {
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Message: apiErr.Message}
	}
	return err
}
