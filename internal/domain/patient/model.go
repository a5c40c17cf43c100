package patient

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Patient is a hospital patient record. CustomID is the human-shareable
// identifier printed on documents; the UUID stays internal.
type Patient struct {
	ID            uuid.UUID `json:"id"`
	CustomID      string    `json:"customId"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Gender        string    `json:"gender"`
	Diagnosis     string    `json:"diagnosis"`
	AdmissionDate time.Time `json:"admissionDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewCustomID generates a patient identifier in the historical
// P-<millis>-<random> form. Uniqueness is enforced by the database.
func NewCustomID(now time.Time) string {
	return fmt.Sprintf("P-%d-%d", now.UnixMilli(), rand.Intn(1000))
}
