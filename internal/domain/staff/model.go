package staff

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

// Account approval lifecycle.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// Account is a staff or patient login record. PasswordHash never leaves the
// package; responses use View.
type Account struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             string     `json:"name"`
	ContactNumber    string     `json:"contactNumber"`
	Specialization   *string    `json:"specialization,omitempty"`
	Experience       *int       `json:"experience,omitempty"`
	Role             auth.Role  `json:"role"`
	IsApproved       bool       `json:"isApproved"`
	Status           string     `json:"status"`
	RegistrationDate time.Time  `json:"registrationDate"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// View is the safe subset of an Account returned to clients after login.
type View struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	Name     string    `json:"name"`
}

func (a *Account) View() View {
	return View{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
		Name:     a.Name,
	}
}
