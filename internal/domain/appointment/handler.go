package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, bearer echo.MiddlewareFunc) {
	g := api.Group("/appointments", bearer)
	g.POST("/book", h.Book, auth.RestrictTo(auth.RoleDoctor, auth.RoleReceptionist, auth.RolePatient))
	g.GET("/doctor/:doctorId", h.ListByDoctor, auth.RestrictTo(auth.RoleDoctor, auth.RoleReceptionist))
	g.PUT("/complete/:appointmentId", h.Complete, auth.RequireRole(auth.RoleDoctor))
	g.GET("/slots/:doctorId", h.AvailableSlots)
	g.GET("/patient/:patientId", h.ListByPatient, auth.RestrictTo(auth.RolePatient, auth.RoleReceptionist))
}

func (h *Handler) Book(c echo.Context) error {
	var in BookInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	a, err := h.svc.Book(c.Request().Context(), in)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Appointment booked successfully",
		"appointment": a,
	})
}

func (h *Handler) ListByDoctor(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid doctor id"})
	}
	items, err := h.svc.ListByDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid patient id"})
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid doctor id"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "date query parameter is required"})
	}

	slots, err := h.svc.AvailableSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"date":           date,
		"availableSlots": slots,
	})
}

func (h *Handler) Complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("appointmentId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid appointment id"})
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	doctorID, err := uuid.Parse(p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid principal")
	}

	a, err := h.svc.Complete(c.Request().Context(), id, doctorID)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Appointment not found"})
	case errors.Is(err, ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Not authorized to complete this appointment"})
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Appointment marked as completed",
		"appointment": a,
	})
}
