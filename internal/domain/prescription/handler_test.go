package prescription

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/filestore"
)

type mockPatients struct {
	byID map[uuid.UUID]*patient.Patient
}

func (m *mockPatients) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	return p, nil
}

type handlerFixture struct {
	handler  *Handler
	repo     *mockRepo
	appts    *mockAppointments
	patients *mockPatients
	files    *filestore.Resolver
	dir      string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	dir := t.TempDir()
	files := filestore.NewResolver(
		filepath.Join(dir, "prescriptions"),
		filepath.Join(dir, "uploads", "prescriptions"),
	)
	repo := newMockRepo()
	appts := newMockAppointments()
	patients := &mockPatients{byID: make(map[uuid.UUID]*patient.Patient)}
	svc := NewService(repo, appts, nil)
	return &handlerFixture{
		handler:  NewHandler(svc, files, patients),
		repo:     repo,
		appts:    appts,
		patients: patients,
		files:    files,
		dir:      dir,
	}
}

// writePDF drops a file into the primary prescriptions directory and
// returns the relative reference as it would be stored.
func (f *handlerFixture) writePDF(t *testing.T, name string) string {
	t.Helper()
	dir := filepath.Join(f.dir, "prescriptions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	return "prescriptions/" + name
}

func request(t *testing.T, h echo.HandlerFunc, p *auth.Principal, paramName, paramValue string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames(paramName)
	c.SetParamValues(paramValue)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestDownloadStreamsPDF(t *testing.T) {
	f := newHandlerFixture(t)
	patientID := uuid.New()
	f.patients.byID[patientID] = &patient.Patient{ID: patientID, Name: "Jane Roe"}

	stored := f.writePDF(t, "prescription-1-1.pdf")
	p := &Prescription{AppointmentID: uuid.New(), PatientID: patientID, DoctorID: uuid.New(), FilePath: &stored}
	_ = f.repo.Create(context.Background(), p)

	doctor := &auth.Principal{ID: p.DoctorID.String(), Role: auth.RoleDoctor}
	rec := request(t, f.handler.Download, doctor, "id", p.ID.String())

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(cd, "prescription_Jane_Roe_") {
		t.Errorf("content disposition = %q", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("body is not the PDF content")
	}
}

func TestDownloadPatientOwnOnly(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.writePDF(t, "prescription-2-2.pdf")
	p := &Prescription{AppointmentID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), FilePath: &stored}
	_ = f.repo.Create(context.Background(), p)

	stranger := &auth.Principal{ID: uuid.New().String(), Role: auth.RolePatient}
	rec := request(t, f.handler.Download, stranger, "id", p.ID.String())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	owner := &auth.Principal{ID: p.PatientID.String(), Role: auth.RolePatient}
	rec = request(t, f.handler.Download, owner, "id", p.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("owner status = %d", rec.Code)
	}
}

func TestDownloadMissingFilePath(t *testing.T) {
	f := newHandlerFixture(t)
	p := &Prescription{AppointmentID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New()}
	_ = f.repo.Create(context.Background(), p)

	admin := &auth.Principal{ID: uuid.New().String(), Role: auth.RoleAdmin}
	rec := request(t, f.handler.Download, admin, "id", p.ID.String())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Prescription file path not found in records") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDownloadUnresolvableFile(t *testing.T) {
	f := newHandlerFixture(t)
	stored := "prescriptions/never-written.pdf"
	p := &Prescription{AppointmentID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), FilePath: &stored}
	_ = f.repo.Create(context.Background(), p)

	admin := &auth.Principal{ID: uuid.New().String(), Role: auth.RoleAdmin}
	rec := request(t, f.handler.Download, admin, "id", p.ID.String())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Please contact the doctor") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDownloadLegacyLocation(t *testing.T) {
	f := newHandlerFixture(t)

	// File lives only under the legacy uploads directory.
	legacyDir := filepath.Join(f.dir, "uploads", "prescriptions")
	if err := os.MkdirAll(legacyDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(legacyDir, "old.pdf"), []byte("%PDF-1.4 legacy"), 0o644); err != nil {
		t.Fatal(err)
	}

	stored := "old.pdf"
	p := &Prescription{AppointmentID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), FilePath: &stored}
	_ = f.repo.Create(context.Background(), p)

	admin := &auth.Principal{ID: uuid.New().String(), Role: auth.RoleAdmin}
	rec := request(t, f.handler.Download, admin, "id", p.ID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "legacy") {
		t.Error("legacy file content not streamed")
	}
}

func TestDownloadLatestNoPrescription(t *testing.T) {
	f := newHandlerFixture(t)
	tech := &auth.Principal{ID: uuid.New().String(), Role: auth.RoleLabTechnician}
	rec := request(t, f.handler.DownloadLatest, tech, "patientId", uuid.New().String())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No prescription found for this patient.") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestDownloadLatestPicksOldest(t *testing.T) {
	f := newHandlerFixture(t)
	patientID := uuid.New()
	f.patients.byID[patientID] = &patient.Patient{ID: patientID, Name: "John Q Public"}

	oldStored := f.writePDF(t, "prescription-old.pdf")
	newStored := f.writePDF(t, "prescription-new.pdf")
	_ = f.repo.Create(context.Background(), &Prescription{
		AppointmentID: uuid.New(), PatientID: patientID, DoctorID: uuid.New(), FilePath: &oldStored,
	})
	_ = f.repo.Create(context.Background(), &Prescription{
		AppointmentID: uuid.New(), PatientID: patientID, DoctorID: uuid.New(), FilePath: &newStored,
	})

	tech := &auth.Principal{ID: uuid.New().String(), Role: auth.RoleLabTechnician}
	rec := request(t, f.handler.DownloadLatest, tech, "patientId", patientID.String())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	cd := rec.Header().Get(echo.HeaderContentDisposition)
	if !strings.Contains(cd, "John_Q_Public_prescription.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	f := newHandlerFixture(t)
	stored := f.writePDF(t, "prescription-del.pdf")
	p := &Prescription{AppointmentID: uuid.New(), PatientID: uuid.New(), DoctorID: uuid.New(), FilePath: &stored}
	_ = f.repo.Create(context.Background(), p)

	author := &auth.Principal{ID: p.DoctorID.String(), Role: auth.RoleDoctor}
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), author))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := f.handler.Delete(c); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Prescription deleted successfully") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(f.dir, "prescriptions", "prescription-del.pdf")); !os.IsNotExist(err) {
		t.Error("backing file should be unlinked")
	}
}
