package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"currency-wallet/internal/core/domain"
	"currency-wallet/internal/core/ports"
	"currency-wallet/pkg/apperror"

	"github.com/google/uuid"
)

const minPasswordLen = 6

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo ports.UserRepository
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	// phoneLeadingDigits mirrors the wallet classifier so a user can log in
	// with the same identifier they receive transfers on.
	phoneLeadingDigits string
	defaultCurrency    string
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	userRepo ports.UserRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	phoneLeadingDigits string,
	defaultCurrency string,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:           userRepo,
		hashSvc:            hashSvc,
		tokenSvc:           tokenSvc,
		phoneLeadingDigits: phoneLeadingDigits,
		defaultCurrency:    defaultCurrency,
	}
}

// Signup registers a user reachable by both email and phone. Both identifiers
// must be unused; either one later serves as a login or transfer selector.
func (s *AuthServiceImpl) Signup(ctx context.Context, req ports.SignupRequest) (*ports.AuthResult, error) {
	if len(req.Password) < minPasswordLen {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	email, err := domain.ClassifyRecipient(req.Email, s.phoneLeadingDigits)
	if err != nil || email.Kind != domain.RecipientEmail {
		return nil, apperror.Validation("a valid email address is required")
	}
	phone, err := domain.ClassifyRecipient(req.Phone, s.phoneLeadingDigits)
	if err != nil || phone.Kind != domain.RecipientPhone {
		return nil, apperror.Validation("a valid phone number is required")
	}

	for _, contact := range []string{email.Value, phone.Value} {
		existing, err := s.userRepo.GetByContact(ctx, contact)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check contact: %w", err))
		}
		if existing != nil {
			return nil, apperror.ErrContactExists()
		}
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        &email.Value,
		Phone:        &phone.Value,
		PasswordHash: passwordHash,
		Currency:     s.defaultCurrency,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name != "" {
			user.Name = &name
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create user: %w", err))
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return &ports.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login validates credentials and returns a JWT token. The identifier may be
// an email address or a phone number in any accepted formatting.
func (s *AuthServiceImpl) Login(ctx context.Context, identifier, password string) (*ports.AuthResult, error) {
	rec, err := domain.ClassifyRecipient(identifier, s.phoneLeadingDigits)
	if err != nil {
		// Shape says nothing about which accounts exist.
		return nil, apperror.ErrInvalidCredentials()
	}

	user, err := s.userRepo.GetByContact(ctx, rec.Value)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiresAt, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return &ports.AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
