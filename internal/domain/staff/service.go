package staff

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/notification"
)

var (
	ErrPendingApproval    = errors.New("account pending admin approval")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("not an administrator")
)

// ValidationError carries the client-facing message for a rejected input.
// Field names the offending field when a single one can be blamed.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	contactPattern = regexp.MustCompile(`^\+?\(?[0-9]{3}\)?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
)

const passwordSpecials = "@$!%*?&"

// strongPassword requires at least 8 characters drawn from letters, digits
// and the allowed specials, with at least one of each character class.
func strongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

type Service struct {
	repo     Repository
	codec    *auth.TokenCodec
	notifier *notification.Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, codec *auth.TokenCodec, notifier *notification.Notifier, logger zerolog.Logger) *Service {
	return &Service{repo: repo, codec: codec, notifier: notifier, logger: logger}
}

// RegisterTechnicianInput is the technician self-onboarding form.
type RegisterTechnicianInput struct {
	Username       string `json:"username"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	ContactNumber  string `json:"contactNumber"`
	Specialization string `json:"specialization"`
	Experience     *int   `json:"experience"`
}

// RegisterTechnician creates an unapproved LabTechnician account and alerts
// administrators. A failed admin email never fails the registration.
func (s *Service) RegisterTechnician(ctx context.Context, in RegisterTechnicianInput) (*Account, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	password := strings.TrimSpace(in.Password)
	username := strings.TrimSpace(in.Username)
	contact := strings.TrimSpace(in.ContactNumber)

	if email == "" || password == "" || username == "" || contact == "" {
		return nil, &ValidationError{Message: "All fields are required"}
	}
	if !emailPattern.MatchString(email) {
		return nil, &ValidationError{Message: "Please enter a valid email address", Field: "email"}
	}
	if !strongPassword(password) {
		return nil, &ValidationError{
			Message: "Password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character",
			Field:   "password",
		}
	}
	if !contactPattern.MatchString(contact) {
		return nil, &ValidationError{Message: "Please enter a valid contact number", Field: "contactNumber"}
	}

	emailTaken, contactTaken, err := s.repo.FindTaken(ctx, email, contact)
	if err != nil {
		return nil, fmt.Errorf("checking existing accounts: %w", err)
	}
	if emailTaken {
		return nil, &ValidationError{Message: "Email already registered", Field: "email"}
	}
	if contactTaken {
		return nil, &ValidationError{Message: "Contact number already registered", Field: "contactNumber"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	a := &Account{
		Username:         username,
		Email:            email,
		PasswordHash:     string(hash),
		Name:             in.Name,
		ContactNumber:    contact,
		Role:             auth.RoleLabTechnician,
		IsApproved:       false,
		Status:           StatusPending,
		RegistrationDate: time.Now(),
	}
	if in.Specialization != "" {
		a.Specialization = &in.Specialization
	}
	a.Experience = in.Experience

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.notifyAdmins(ctx, a)
	s.logger.Info().Str("email", a.Email).Msg("new lab technician registered")
	return a, nil
}

func (s *Service) notifyAdmins(ctx context.Context, a *Account) {
	admins, err := s.repo.ListByRole(ctx, auth.RoleAdmin)
	if err != nil {
		s.logger.Warn().Err(err).Msg("listing admins for registration notice")
		return
	}
	for _, admin := range admins {
		if err := s.notifier.StaffRegistrationPending(ctx, admin.Email, a.Name, string(a.Role), a.Email); err != nil {
			s.logger.Warn().Err(err).Str("admin", admin.Email).Msg("registration notice failed")
		}
	}
}

// LoginTechnician authenticates a LabTechnician and returns a signed token.
func (s *Service) LoginTechnician(ctx context.Context, email, password string) (string, *Account, error) {
	a, err := s.repo.GetByEmailAndRole(ctx, strings.ToLower(strings.TrimSpace(email)), auth.RoleLabTechnician)
	if err != nil {
		return "", nil, err
	}
	if !a.IsApproved {
		return "", nil, ErrPendingApproval
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return "", nil, ErrIncorrectPassword
	}
	token, err := s.codec.Issue(a.ID.String(), a.Role, a.Email)
	if err != nil {
		return "", nil, fmt.Errorf("issuing token: %w", err)
	}
	return token, a, nil
}

// RegisterUser is the general account registration used by the admin console.
func (s *Service) RegisterUser(ctx context.Context, username, email, password, role string) (*Account, error) {
	if username == "" || email == "" || password == "" || role == "" {
		return nil, &ValidationError{Message: "All fields are required."}
	}
	if !strongPassword(password) {
		return nil, &ValidationError{
			Message: "Weak password! It must be at least 8 characters long, contain an uppercase letter, a lowercase letter, a number, and a special character.",
		}
	}
	parsedRole, ok := auth.ParseRole(role)
	if !ok {
		return nil, &ValidationError{Message: "Invalid role.", Field: "role"}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, &ValidationError{Message: "User already registered."}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	a := &Account{
		Username:         username,
		Email:            email,
		PasswordHash:     string(hash),
		Name:             username,
		Role:             parsedRole,
		IsApproved:       false,
		Status:           StatusPending,
		RegistrationDate: time.Now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	return a, nil
}

// AdminLogin authenticates an administrator. Non-admin accounts are refused
// even with correct credentials.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (string, error) {
	a, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if a.Role != auth.RoleAdmin {
		return "", ErrNotAdmin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	token, err := s.codec.Issue(a.ID.String(), a.Role, a.Email)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// ListPending returns accounts awaiting an approval decision.
func (s *Service) ListPending(ctx context.Context) ([]*Account, error) {
	return s.repo.ListPending(ctx)
}

// Approve activates an account and emails the owner. The email is advisory.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetApproval(ctx, id, true, StatusApproved); err != nil {
		return err
	}
	if err := s.notifier.AccountApproved(ctx, a.Email, a.Name, string(a.Role)); err != nil {
		s.logger.Warn().Err(err).Str("email", a.Email).Msg("approval notice failed")
	}
	return nil
}

// Reject declines an account and emails the owner. The email is advisory.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.SetApproval(ctx, id, false, StatusRejected); err != nil {
		return err
	}
	if err := s.notifier.AccountRejected(ctx, a.Email, a.Name); err != nil {
		s.logger.Warn().Err(err).Str("email", a.Email).Msg("rejection notice failed")
	}
	return nil
}
