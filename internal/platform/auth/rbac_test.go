package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func perform(t *testing.T, mw echo.MiddlewareFunc, p *Principal, header string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.SetRequest(req.WithContext(WithPrincipal(req.Context(), p)))
	}

	handler := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestBearerAuthMissingToken(t *testing.T) {
	codec := NewTokenCodec("s")
	rec := perform(t, BearerAuth(codec), nil, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No token provided") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestBearerAuthInvalidToken(t *testing.T) {
	codec := NewTokenCodec("s")
	rec := perform(t, BearerAuth(codec), nil, "Bearer bogus")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid token") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestBearerAuthAttachesPrincipal(t *testing.T) {
	codec := NewTokenCodec("s")
	token, err := codec.Issue("u-1", RoleLabTechnician, "tech@hospital.test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Principal
	handler := BearerAuth(codec)(func(c echo.Context) error {
		seen = PrincipalFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen == nil || seen.ID != "u-1" || seen.Role != RoleLabTechnician {
		t.Errorf("principal not attached correctly: %+v", seen)
	}
}

func TestRequireRoleAllowsExactMatch(t *testing.T) {
	rec := perform(t, RequireRole(RoleAdmin), &Principal{ID: "a", Role: RoleAdmin}, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	rec := perform(t, RequireRole(RoleAdmin), &Principal{ID: "d", Role: RoleDoctor}, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Admin access required") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRequireRoleRejectsMissingPrincipal(t *testing.T) {
	rec := perform(t, RequireRole(RoleAdmin), nil, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestRestrictToMembership(t *testing.T) {
	mw := RestrictTo(RoleDoctor, RoleReceptionist)

	rec := perform(t, mw, &Principal{ID: "d", Role: RoleDoctor}, "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected doctor to pass, got %d", rec.Code)
	}

	rec = perform(t, mw, &Principal{ID: "p", Role: RolePatient}, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected patient to be rejected, got %d", rec.Code)
	}
}

func TestRestrictToUnknownRoleFailsClosed(t *testing.T) {
	rec := perform(t, RestrictTo(RoleDoctor), &Principal{ID: "x", Role: Role("Intruder")}, "")
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for unknown role, got %d", rec.Code)
	}
}
