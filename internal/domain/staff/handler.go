package staff

import (
	"context"
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

// RegisterRoutes mounts the public registration/login endpoints and the
// admin-only approval endpoints. bearer is the token middleware; the public
// endpoints stay outside it.
func (h *Handler) RegisterRoutes(api *echo.Group, bearer echo.MiddlewareFunc) {
	lab := api.Group("/lab")
	lab.POST("/register", h.RegisterTechnician)
	lab.POST("/login", h.LoginTechnician)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.RegisterUser)
	authGroup.POST("/admin/login", h.AdminLogin)

	admin := api.Group("/auth/admin", bearer, auth.RequireRole(auth.RoleAdmin))
	admin.GET("/pending", h.ListPending)
	admin.PUT("/approve/:id", h.Approve)
	admin.PUT("/reject/:id", h.Reject)
}

func (h *Handler) RegisterTechnician(c echo.Context) error {
	var in RegisterTechnicianInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	a, err := h.svc.RegisterTechnician(c.Request().Context(), in)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"message": ve.Message,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Server error during registration",
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":     true,
		"message":     "Registration successful. Awaiting admin approval.",
		"redirectUrl": "/awaiting-approval",
		"data": echo.Map{
			"username": a.Username,
			"email":    a.Email,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) LoginTechnician(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}
	if req.Email == "" || req.Password == "" {
		field := "email"
		if req.Email != "" {
			field = "password"
		}
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Email and password are required",
			"field":   field,
		})
	}

	token, a, err := h.svc.LoginTechnician(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"message": "No lab technician account found with this email",
		})
	case errors.Is(err, ErrPendingApproval):
		return c.JSON(http.StatusForbidden, echo.Map{
			"success":    false,
			"message":    "Account pending admin approval",
			"resolution": "Contact your administrator",
		})
	case errors.Is(err, ErrIncorrectPassword):
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success":    false,
			"message":    "Incorrect password",
			"resolution": "Reset password if forgotten",
		})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"message": "Server error during login",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    a.View(),
	})
}

type registerUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) RegisterUser(c echo.Context) error {
	var req registerUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}

	_, err := h.svc.RegisterUser(c.Request().Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": ve.Message})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error. Please try again later."})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully!"})
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Please provide both email and password"})
	}

	token, err := h.svc.AdminLogin(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, ErrNotAdmin):
		return c.JSON(http.StatusForbidden, echo.Map{"message": "Access denied. Admins only."})
	case errors.Is(err, ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Invalid credentials"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Server error. Please try again later."})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "token": token})
}

func (h *Handler) ListPending(c echo.Context) error {
	accounts, err := h.svc.ListPending(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if accounts == nil {
		accounts = []*Account{}
	}
	return c.JSON(http.StatusOK, accounts)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.decide(c, h.svc.Approve, "Account approved")
}

func (h *Handler) Reject(c echo.Context) error {
	return h.decide(c, h.svc.Reject, "Account rejected")
}

func (h *Handler) decide(c echo.Context, fn func(ctx context.Context, id uuid.UUID) error, msg string) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := fn(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Account not found"})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg})
}
