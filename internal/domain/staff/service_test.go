package staff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/notification"
)

// -- Mock Repository --

type mockRepo struct {
	accounts map[uuid.UUID]*Account
}

func newMockRepo() *mockRepo {
	return &mockRepo{accounts: make(map[uuid.UUID]*Account)}
}

func (m *mockRepo) Create(_ context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.accounts[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetByEmailAndRole(_ context.Context, email string, role auth.Role) (*Account, error) {
	for _, a := range m.accounts {
		if a.Email == email && a.Role == role {
			return a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) FindTaken(_ context.Context, email, contact string) (bool, bool, error) {
	var emailTaken, contactTaken bool
	for _, a := range m.accounts {
		if a.Email == email {
			emailTaken = true
		}
		if contact != "" && a.ContactNumber == contact {
			contactTaken = true
		}
	}
	return emailTaken, contactTaken, nil
}

func (m *mockRepo) ListByRole(_ context.Context, role auth.Role) ([]*Account, error) {
	var out []*Account
	for _, a := range m.accounts {
		if a.Role == role {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListPending(_ context.Context) ([]*Account, error) {
	var out []*Account
	for _, a := range m.accounts {
		if a.Status == StatusPending {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) SetApproval(_ context.Context, id uuid.UUID, approved bool, status string) error {
	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.IsApproved = approved
	a.Status = status
	return nil
}

func newTestService(repo Repository, mailer notification.Mailer) *Service {
	if mailer == nil {
		mailer = &notification.MockMailer{}
	}
	notifier := notification.NewNotifier(mailer, notification.NewTemplateEngine())
	return NewService(repo, auth.NewTokenCodec("test-secret"), notifier, zerolog.Nop())
}

func validInput() RegisterTechnicianInput {
	return RegisterTechnicianInput{
		Username:      "rkumar",
		Email:         "ravi@hospital.test",
		Password:      "Str0ng!pass",
		Name:          "Ravi Kumar",
		ContactNumber: "555-123-4567",
	}
}

// -- Registration --

func TestRegisterTechnician(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	a, err := svc.RegisterTechnician(context.Background(), validInput())
	if err != nil {
		t.Fatalf("RegisterTechnician: %v", err)
	}
	if a.Role != auth.RoleLabTechnician {
		t.Errorf("role = %s", a.Role)
	}
	if a.IsApproved {
		t.Error("new account must not be approved")
	}
	if a.Status != StatusPending {
		t.Errorf("status = %s", a.Status)
	}
	if a.PasswordHash == "Str0ng!pass" {
		t.Error("password stored in clear")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("Str0ng!pass")); err != nil {
		t.Error("stored hash does not verify the password")
	}
}

func TestRegisterTechnicianValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RegisterTechnicianInput)
	}{
		{"missing email", func(in *RegisterTechnicianInput) { in.Email = "  " }},
		{"bad email", func(in *RegisterTechnicianInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterTechnicianInput) { in.Password = "Ab1!" }},
		{"no uppercase", func(in *RegisterTechnicianInput) { in.Password = "weak1pass!" }},
		{"no special", func(in *RegisterTechnicianInput) { in.Password = "Weak1pass" }},
		{"bad contact", func(in *RegisterTechnicianInput) { in.ContactNumber = "12" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			svc := newTestService(newMockRepo(), nil)
			_, err := svc.RegisterTechnician(context.Background(), in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestRegisterTechnicianDuplicate(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	if _, err := svc.RegisterTechnician(ctx, validInput()); err != nil {
		t.Fatalf("first registration: %v", err)
	}

	_, err := svc.RegisterTechnician(ctx, validInput())
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Message != "Email already registered" {
		t.Fatalf("expected duplicate email rejection, got %v", err)
	}

	in := validInput()
	in.Email = "other@hospital.test"
	_, err = svc.RegisterTechnician(ctx, in)
	if !errors.As(err, &ve) || ve.Message != "Contact number already registered" {
		t.Fatalf("expected duplicate contact rejection, got %v", err)
	}
}

func TestRegisterTechnicianNotifiesAdmins(t *testing.T) {
	repo := newMockRepo()
	admin := &Account{Email: "admin@hospital.test", Role: auth.RoleAdmin, Status: StatusApproved}
	_ = repo.Create(context.Background(), admin)

	mailer := &notification.MockMailer{}
	svc := newTestService(repo, mailer)

	if _, err := svc.RegisterTechnician(context.Background(), validInput()); err != nil {
		t.Fatalf("RegisterTechnician: %v", err)
	}
	calls := mailer.Calls()
	if len(calls) != 1 || calls[0].To != "admin@hospital.test" {
		t.Fatalf("expected one admin notice, got %+v", calls)
	}
}

func TestRegisterTechnicianSurvivesEmailFailure(t *testing.T) {
	repo := newMockRepo()
	admin := &Account{Email: "admin@hospital.test", Role: auth.RoleAdmin, Status: StatusApproved}
	_ = repo.Create(context.Background(), admin)

	mailer := &notification.MockMailer{ShouldFail: true, FailError: "relay down"}
	svc := newTestService(repo, mailer)

	if _, err := svc.RegisterTechnician(context.Background(), validInput()); err != nil {
		t.Fatalf("registration must succeed despite email failure, got %v", err)
	}
}

// -- Login --

func TestLoginTechnician(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	a, err := svc.RegisterTechnician(ctx, validInput())
	if err != nil {
		t.Fatalf("RegisterTechnician: %v", err)
	}

	if _, _, err := svc.LoginTechnician(ctx, a.Email, "Str0ng!pass"); !errors.Is(err, ErrPendingApproval) {
		t.Fatalf("unapproved login should fail with ErrPendingApproval, got %v", err)
	}

	if err := svc.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	token, got, err := svc.LoginTechnician(ctx, a.Email, "Str0ng!pass")
	if err != nil {
		t.Fatalf("LoginTechnician: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if got.ID != a.ID {
		t.Errorf("wrong account returned")
	}

	if _, _, err := svc.LoginTechnician(ctx, a.Email, "wrong"); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	if _, _, err := svc.LoginTechnician(ctx, "nobody@hospital.test", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// -- Admin --

func TestAdminLogin(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Adm1n!pass"), bcrypt.DefaultCost)
	admin := &Account{Email: "admin@hospital.test", PasswordHash: string(hash), Role: auth.RoleAdmin}
	_ = repo.Create(ctx, admin)

	doctorHash, _ := bcrypt.GenerateFromPassword([]byte("D0ctor!pass"), bcrypt.DefaultCost)
	doctor := &Account{Email: "doc@hospital.test", PasswordHash: string(doctorHash), Role: auth.RoleDoctor}
	_ = repo.Create(ctx, doctor)

	token, err := svc.AdminLogin(ctx, "admin@hospital.test", "Adm1n!pass")
	if err != nil || token == "" {
		t.Fatalf("AdminLogin: token=%q err=%v", token, err)
	}

	if _, err := svc.AdminLogin(ctx, "doc@hospital.test", "D0ctor!pass"); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("doctor should be refused admin login, got %v", err)
	}
	if _, err := svc.AdminLogin(ctx, "admin@hospital.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password, got %v", err)
	}
	if _, err := svc.AdminLogin(ctx, "ghost@hospital.test", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email, got %v", err)
	}
}

func TestApproveReject(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	ctx := context.Background()

	a, err := svc.RegisterTechnician(ctx, validInput())
	if err != nil {
		t.Fatalf("RegisterTechnician: %v", err)
	}

	pending, _ := svc.ListPending(ctx)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending account, got %d", len(pending))
	}

	if err := svc.Reject(ctx, a.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	got, _ := repo.GetByID(ctx, a.ID)
	if got.Status != StatusRejected || got.IsApproved {
		t.Errorf("after reject: status=%s approved=%v", got.Status, got.IsApproved)
	}

	if err := svc.Approve(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approving unknown id, got %v", err)
	}
}

func TestStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Str0ng!pass": true,
		"short1!A":    true,
		"alllower1!":  false,
		"ALLUPPER1!":  false,
		"NoDigits!!":  false,
		"NoSpecial1":  false,
		"Has space1!": false,
		"Sh0r!":       false,
	}
	for pw, want := range cases {
		if got := strongPassword(pw); got != want {
			t.Errorf("strongPassword(%q) = %v, want %v", pw, got, want)
		}
	}
}
