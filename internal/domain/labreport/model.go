package labreport

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Report statuses.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Priorities.
const (
	PriorityNormal    = "Normal"
	PriorityUrgent    = "Urgent"
	PriorityEmergency = "Emergency"
)

// TestTypes is the closed set of orderable test categories.
var TestTypes = map[string]bool{
	"Blood Test": true,
	"Urine Test": true,
	"X-Ray":      true,
	"MRI":        true,
	"CT Scan":    true,
	"ECG":        true,
	"Ultrasound": true,
	"Biopsy":     true,
	"Other":      true,
}

const DefaultTestType = "Blood Test"

// TestParameter is one measured value with its reference interval, stored
// as jsonb alongside the report.
type TestParameter struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"referenceRange"`
}

// InRange reports whether Value parses as a number inside the "min-max"
// reference range. Unparseable values or ranges count as out of range.
func (p TestParameter) InRange() bool {
	bounds := strings.SplitN(p.ReferenceRange, "-", 2)
	if len(bounds) != 2 {
		return false
	}
	min, err1 := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
	max, err2 := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
	value, err3 := strconv.ParseFloat(strings.TrimSpace(p.Value), 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	return value >= min && value <= max
}

type Report struct {
	ID              uuid.UUID       `json:"id"`
	PatientID       uuid.UUID       `json:"patientId"`
	DoctorID        uuid.UUID       `json:"doctorId"`
	LabTechnicianID *uuid.UUID      `json:"labTechnicianId,omitempty"`
	TestName        string          `json:"testName"`
	TestType        string          `json:"testType"`
	Date            time.Time       `json:"date"`
	Status          string          `json:"status"`
	Results         *string         `json:"results,omitempty"`
	Notes           *string         `json:"notes,omitempty"`
	ReferenceRange  *string         `json:"referenceRange,omitempty"`
	Units           *string         `json:"units,omitempty"`
	FileURL         *string         `json:"fileUrl,omitempty"`
	TestParameters  []TestParameter `json:"testParameters"`
	IsNormal        bool            `json:"isNormal"`
	Priority        string          `json:"priority"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// DeriveIsNormal recomputes IsNormal from the test parameters. A report
// without parameters stays normal.
func (r *Report) DeriveIsNormal() {
	if len(r.TestParameters) == 0 {
		r.IsNormal = true
		return
	}
	for _, p := range r.TestParameters {
		if !p.InRange() {
			r.IsNormal = false
			return
		}
	}
	r.IsNormal = true
}
