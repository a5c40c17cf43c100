package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/patients"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContextDefaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestFromContextClampsLimit(t *testing.T) {
	p := paramsFor(t, "?limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContextParsesValues(t *testing.T) {
	p := paramsFor(t, "?limit=10&offset=30")
	if p.Limit != 10 || p.Offset != 30 {
		t.Errorf("got limit=%d offset=%d", p.Limit, p.Offset)
	}
	if got := p.SQL(); got != "LIMIT 10 OFFSET 30" {
		t.Errorf("SQL() = %q", got)
	}
}

func TestNewResponseHasMore(t *testing.T) {
	r := NewResponse([]int{1, 2, 3}, 50, 20, 0)
	if !r.HasMore {
		t.Error("expected HasMore for partial page")
	}
	r = NewResponse([]int{1}, 21, 20, 20)
	if r.HasMore {
		t.Error("expected HasMore false on last page")
	}
}
