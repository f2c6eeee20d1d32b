package identity

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Service struct {
	accounts Repository
	secret   []byte
	tokenTTL time.Duration
}

func NewService(accounts Repository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{accounts: accounts, secret: secret, tokenTTL: tokenTTL}
}

func (s *Service) validateCredentials(name, email, password string) error {
	if name == "" {
		return apierror.Validation("name is required")
	}
	if !emailPattern.MatchString(email) {
		return apierror.Validation("invalid email address")
	}
	if len(password) < 8 {
		return apierror.Validation("password must be at least 8 characters")
	}
	return nil
}

func (s *Service) create(ctx context.Context, a *Account, password string) (*Account, error) {
	_, err := s.accounts.GetByEmail(ctx, a.Email)
	if err == nil {
		return nil, apierror.Conflict("an account with this email already exists")
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apierror.Unexpected("failed to check existing account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierror.Unexpected("failed to hash password")
	}
	a.PasswordHash = string(hash)

	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, apierror.Unexpected("failed to create account")
	}
	return a, nil
}

// Register is the self-service signup path. Only patient accounts can be
// created this way.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Account, error) {
	if err := s.validateCredentials(name, email, password); err != nil {
		return nil, err
	}
	return s.create(ctx, &Account{Name: name, Email: email, Role: auth.RolePatient}, password)
}

// Login verifies the credentials and issues a signed token for the account.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Account, error) {
	a, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, apierror.Unauthenticated("invalid email or password")
		}
		return "", nil, apierror.Unexpected("failed to load account")
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return "", nil, apierror.Unauthenticated("invalid email or password")
	}

	token, err := auth.IssueToken(s.secret, a.ID, a.Role, s.tokenTTL)
	if err != nil {
		return "", nil, apierror.Unexpected("failed to issue token")
	}
	return token, a, nil
}

// CreateDoctor creates a doctor account. Admin surface only.
func (s *Service) CreateDoctor(ctx context.Context, name, email, password, speciality string, fee float64) (*Account, error) {
	if err := s.validateCredentials(name, email, password); err != nil {
		return nil, err
	}
	if speciality == "" {
		return nil, apierror.Validation("speciality is required for doctors")
	}
	if fee < 0 {
		return nil, apierror.Validation("fee must not be negative")
	}
	return s.create(ctx, &Account{
		Name:       name,
		Email:      email,
		Role:       auth.RoleDoctor,
		Speciality: &speciality,
		Fee:        &fee,
	}, password)
}

// CreatePatient creates a patient account on behalf of an admin.
func (s *Service) CreatePatient(ctx context.Context, name, email, password string) (*Account, error) {
	if err := s.validateCredentials(name, email, password); err != nil {
		return nil, err
	}
	return s.create(ctx, &Account{Name: name, Email: email, Role: auth.RolePatient}, password)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NotFound("account not found")
		}
		return nil, apierror.Unexpected("failed to load account")
	}
	return a, nil
}

// Delete removes an account. Admin surface only.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apierror.NotFound("account not found")
		}
		return apierror.Unexpected("failed to load account")
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return apierror.Unexpected("failed to delete account")
	}
	return nil
}

// ListDoctors returns doctor accounts, optionally filtered by speciality.
func (s *Service) ListDoctors(ctx context.Context, speciality string, limit, offset int) ([]*Account, int, error) {
	return s.accounts.ListByRole(ctx, auth.RoleDoctor, speciality, limit, offset)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	return s.accounts.ListByRole(ctx, auth.RolePatient, "", limit, offset)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	return s.accounts.List(ctx, limit, offset)
}

// SeedAdmin creates the bootstrap admin account if no account with the given
// email exists. Safe to run on every startup.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (*Account, bool, error) {
	a, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return a, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, apierror.Unexpected("failed to check existing account")
	}
	if err := s.validateCredentials(name, email, password); err != nil {
		return nil, false, err
	}
	a, err = s.create(ctx, &Account{Name: name, Email: email, Role: auth.RoleAdmin}, password)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}
