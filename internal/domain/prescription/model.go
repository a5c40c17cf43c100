// Package prescription manages the prescriptions a doctor issues against
// an appointment, including the PDF document backing each one.
package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one line of a prescription.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Prescription ties a doctor's issued document to the appointment it was
// written for. FilePath is a relative reference under the prescriptions
// directory; older records may carry bare filenames or absolute paths,
// which the file resolver handles at download time.
type Prescription struct {
	ID            uuid.UUID    `json:"id"`
	AppointmentID uuid.UUID    `json:"appointmentId"`
	PatientID     uuid.UUID    `json:"patientId"`
	DoctorID      uuid.UUID    `json:"doctorId"`
	Diagnosis     *string      `json:"diagnosis"`
	Medications   []Medication `json:"medications"`
	Notes         *string      `json:"notes"`
	FilePath      *string      `json:"filePath"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
