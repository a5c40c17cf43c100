package prescription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/filestore"
)

// maxUploadBytes caps a single prescription PDF.
const maxUploadBytes = 5 << 20

// PatientDirectory is the slice of the patient service used to name
// downloads after the patient.
type PatientDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type Handler struct {
	svc      *Service
	files    *filestore.Resolver
	patients PatientDirectory
}

func NewHandler(svc *Service, files *filestore.Resolver, patients PatientDirectory) *Handler {
	return &Handler{svc: svc, files: files, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group, bearer echo.MiddlewareFunc) {
	g := api.Group("/prescriptions", bearer)
	g.POST("", h.Create, auth.RequireRole(auth.RoleDoctor))
	g.GET("/patient/:patientId", h.PatientPrescriptions)
	g.GET("/doctor", h.DoctorPrescriptions, auth.RequireRole(auth.RoleDoctor))
	g.GET("/:id/download", h.Download,
		auth.RestrictTo(auth.RoleAdmin, auth.RoleDoctor, auth.RoleLabTechnician, auth.RolePatient))
	g.DELETE("/:id", h.Delete, auth.RestrictTo(auth.RoleAdmin, auth.RoleDoctor))

	// The lab desk hands out a patient's first prescription on request.
	api.Group("/lab", bearer).GET("/prescriptions/latest/:patientId", h.DownloadLatest)
}

func principal(c echo.Context) (*auth.Principal, uuid.UUID, error) {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid principal")
	}
	return p, id, nil
}

func (h *Handler) Create(c echo.Context) error {
	_, doctorID, err := principal(c)
	if err != nil {
		return err
	}

	in := CreateInput{}
	appointmentID, err := uuid.Parse(c.FormValue("appointmentId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid appointment id"})
	}
	in.AppointmentID = appointmentID
	if v := c.FormValue("diagnosis"); v != "" {
		in.Diagnosis = &v
	}
	if v := c.FormValue("notes"); v != "" {
		in.Notes = &v
	}
	if v := c.FormValue("medications"); v != "" {
		if err := json.Unmarshal([]byte(v), &in.Medications); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid medications format"})
		}
	}

	// Prefer an uploaded document; fall back to a filename generated by
	// the client. Either way the stored path is relative.
	var savedName string
	if file, err := c.FormFile("file"); err == nil {
		if file.Header.Get(echo.HeaderContentType) != "application/pdf" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Only PDF files are allowed"})
		}
		if file.Size > maxUploadBytes {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "File too large. Maximum size is 5MB."})
		}
		src, err := file.Open()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error reading uploaded file"})
		}
		defer src.Close()
		savedName, err = h.files.SaveUpload(file.Filename, src)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error saving uploaded file"})
		}
		fp := "prescriptions/" + savedName
		in.FilePath = &fp
	} else if name := c.FormValue("fileName"); name != "" {
		fp := "prescriptions/" + name
		in.FilePath = &fp
	}

	p, err := h.svc.Create(c.Request().Context(), doctorID, in)
	if err != nil {
		if savedName != "" {
			if rerr := h.files.Remove(savedName); rerr != nil {
				log.Warn().Err(rerr).Str("file", savedName).Msg("orphaned prescription upload")
			}
		}
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Appointment not found"})
		case errors.Is(err, ErrNotAppointmentOwner):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized to create prescription for this appointment"})
		case errors.Is(err, ErrAlreadyExists):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Prescription already exists for this appointment"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error creating prescription"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":      "Prescription created successfully",
		"prescription": p,
	})
}

func (h *Handler) PatientPrescriptions(c echo.Context) error {
	pr, callerID, err := principal(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Patient ID is required"})
	}

	// Staff see any patient's prescriptions; a patient only their own.
	staff := pr.Role == auth.RoleAdmin || pr.Role == auth.RoleDoctor || pr.Role == auth.RoleLabTechnician
	if !staff && callerID != patientID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized to view these prescriptions"})
	}

	items, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching prescriptions"})
	}
	if items == nil {
		items = []*Prescription{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) DoctorPrescriptions(c echo.Context) error {
	_, doctorID, err := principal(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching prescriptions"})
	}
	if items == nil {
		items = []*Prescription{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Download(c echo.Context) error {
	pr, callerID, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid prescription id"})
	}

	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Prescription not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error downloading prescription"})
	}

	staff := pr.Role == auth.RoleAdmin || pr.Role == auth.RoleDoctor || pr.Role == auth.RoleLabTechnician
	if !staff && callerID != p.PatientID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized to download this prescription"})
	}

	if p.FilePath == nil || *p.FilePath == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Prescription file path not found in records"})
	}
	absPath, err := h.files.Resolve(*p.FilePath)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "Prescription file not found on server. Please contact the doctor to regenerate the prescription.",
		})
	}

	var patientName string
	if rec, err := h.patients.GetByID(c.Request().Context(), p.PatientID); err == nil {
		patientName = rec.Name
	}
	fileName := filestore.SuggestedFileName(patientName, p.PatientID.String(), time.Now())

	if err := h.sendFile(c, absPath, fileName); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error downloading prescription"})
	}
	return nil
}

var whitespace = regexp.MustCompile(`\s+`)

func (h *Handler) DownloadLatest(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Invalid patient id"})
	}

	p, err := h.svc.FirstForPatient(c.Request().Context(), patientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"success": false,
				"message": "No prescription found for this patient.",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Error downloading prescription",
		})
	}
	if p.FilePath == nil || *p.FilePath == "" {
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": "Prescription file path is missing.",
		})
	}
	absPath, err := h.files.Resolve(*p.FilePath)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": "Prescription file not found on server.",
		})
	}

	fileName := patientID.String() + "_prescription.pdf"
	if rec, err := h.patients.GetByID(c.Request().Context(), patientID); err == nil {
		fileName = fmt.Sprintf("%s_prescription.pdf", whitespace.ReplaceAllString(rec.Name, "_"))
	}

	if err := h.sendFile(c, absPath, fileName); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Error downloading file",
		})
	}
	return nil
}

// sendFile streams a resolved PDF. A transfer failure before headers went
// out is returned so the caller can answer with JSON; a mid-stream
// failure is only logged since the response is already committed.
func (h *Handler) sendFile(c echo.Context, absPath, fileName string) error {
	err := filestore.SendPDF(c, absPath, fileName)
	if err == nil {
		return nil
	}
	if errors.Is(err, filestore.ErrTransferFailed) {
		return err
	}
	log.Error().Err(err).Str("path", absPath).Msg("prescription stream aborted")
	return nil
}

func (h *Handler) Delete(c echo.Context) error {
	pr, callerID, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid prescription id"})
	}

	p, err := h.svc.Delete(c.Request().Context(), id, callerID, pr.Role == auth.RoleAdmin)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Prescription not found"})
		case errors.Is(err, ErrNotDeletable):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized to delete this prescription"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error deleting prescription"})
	}

	if p.FilePath != nil && *p.FilePath != "" {
		if err := h.files.Remove(*p.FilePath); err != nil {
			log.Warn().Err(err).Str("file", *p.FilePath).Msg("prescription file not removed")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Prescription deleted successfully"})
}
