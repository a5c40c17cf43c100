package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Stored lowercase.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// SlotGrid is the bookable half-hour slots of a working day.
var SlotGrid = []string{
	"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
	"12:00", "12:30", "14:00", "14:30", "15:00", "15:30",
	"16:00", "16:30",
}

type Appointment struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patientId"`
	DoctorID  uuid.UUID `json:"doctorId"`
	Date      time.Time `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
