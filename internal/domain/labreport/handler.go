package labreport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

// PatientSearcher is the slice of the patient service the lab desk uses.
type PatientSearcher interface {
	Search(ctx context.Context, query string) ([]*patient.Patient, error)
}

type Handler struct {
	svc      *Service
	patients PatientSearcher
}

func NewHandler(svc *Service, patients PatientSearcher) *Handler {
	return &Handler{svc: svc, patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group, bearer echo.MiddlewareFunc) {
	g := api.Group("/lab", bearer)
	g.GET("/pending-tests", h.PendingTests)
	g.PUT("/tests/:testId", h.UpdateLabResult)
	g.GET("/my-reports", h.MyReports)
	g.GET("/patients-served-today", h.PatientsServedToday)
	g.POST("/reports", h.Create)
	g.PUT("/reports/:reportId", h.Update)
	g.GET("/reports/:reportId", h.Get)
	g.GET("/patient-reports/:patientId", h.PatientReports)
	g.GET("/patients/search", h.SearchPatients)

	// Historical mount point for the patient report listing.
	pr := api.Group("/patient-reports", bearer)
	pr.GET("/:patientId", h.PatientReports)
}

func technicianID(c echo.Context) (uuid.UUID, error) {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "missing principal")
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid principal")
	}
	return id, nil
}

func (h *Handler) PendingTests(c echo.Context) error {
	reports, err := h.svc.PendingTests(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching lab requests"})
	}
	if reports == nil {
		reports = []*Report{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) UpdateLabResult(c echo.Context) error {
	testID, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid test id"})
	}
	techID, err := technicianID(c)
	if err != nil {
		return err
	}

	var in ResultInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	rep, err := h.svc.UpdateLabResult(c.Request().Context(), testID, techID, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Lab test not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error updating lab test result"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Lab test result updated successfully",
		"report":  rep,
	})
}

func (h *Handler) MyReports(c echo.Context) error {
	techID, err := technicianID(c)
	if err != nil {
		return err
	}
	reports, err := h.svc.MyReports(c.Request().Context(), techID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching reports"})
	}
	if reports == nil {
		reports = []*Report{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) PatientsServedToday(c echo.Context) error {
	techID, err := technicianID(c)
	if err != nil {
		return err
	}
	count, err := h.svc.PatientsServedToday(c.Request().Context(), techID, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching patients served today"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

func (h *Handler) Create(c echo.Context) error {
	techID, err := technicianID(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	rep, err := h.svc.Create(c.Request().Context(), techID, in)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Lab report created successfully",
		"report":  rep,
	})
}

func (h *Handler) Update(c echo.Context) error {
	reportID, err := uuid.Parse(c.Param("reportId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid report id"})
	}
	techID, err := technicianID(c)
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	rep, err := h.svc.Update(c.Request().Context(), reportID, techID, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Lab report not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error updating lab report"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Lab report updated successfully",
		"report":  rep,
	})
}

func (h *Handler) Get(c echo.Context) error {
	reportID, err := uuid.Parse(c.Param("reportId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid report id"})
	}
	rep, err := h.svc.Get(c.Request().Context(), reportID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Lab report not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching lab report"})
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) PatientReports(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid patient id"})
	}
	reports, err := h.svc.PatientReports(c.Request().Context(), patientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Error fetching patient reports"})
	}
	if reports == nil {
		reports = []*Report{}
	}
	return c.JSON(http.StatusOK, reports)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	results, err := h.patients.Search(c.Request().Context(), c.QueryParam("query"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Error searching patients",
		})
	}
	if results == nil {
		results = []*patient.Patient{}
	}

	page := pagination.FromContext(c)
	total := len(results)
	start := page.Offset
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    results[start:end],
		"pagination": echo.Map{
			"total":   total,
			"limit":   page.Limit,
			"offset":  page.Offset,
			"hasMore": page.HasNext(total),
		},
	})
}
