package filestore

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SuggestedFileName builds the download filename offered to the client:
// prescription_<patient>_<date>.pdf with whitespace and punctuation in the
// patient name normalized to underscores. When the name is unavailable the
// raw identifier is used instead.
func SuggestedFileName(patientName, fallbackID string, now time.Time) string {
	base := "unknown_patient"
	if patientName != "" {
		base = nonAlphanumeric.ReplaceAllString(patientName, "_")
	} else if fallbackID != "" {
		base = fallbackID
	}
	return fmt.Sprintf("prescription_%s_%s.pdf", base, now.Format("2006-01-02"))
}

// SendPDF streams the file at absPath as an attachment named fileName.
//
// Failure handling distinguishes two cases. If the file cannot be opened,
// no header has been written yet and ErrTransferFailed is returned so the
// handler can answer with a JSON error. If the copy fails after headers
// were sent, nothing more can be written to the response; the error is
// returned for logging and the client sees a truncated download.
func SendPDF(c echo.Context, absPath, fileName string) error {
	f, err := os.Open(absPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	defer f.Close()

	h := c.Response().Header()
	h.Set(echo.HeaderContentType, "application/pdf")
	h.Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")

	c.Response().WriteHeader(http.StatusOK)
	if _, err := io.Copy(c.Response(), f); err != nil {
		// Headers already went out; abort the stream.
		return fmt.Errorf("streaming %s: %w", absPath, err)
	}
	return nil
}
