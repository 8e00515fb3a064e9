package httpadapter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/eval-tree-viewer/internal/config"
	"github.com/kirillkom/eval-tree-viewer/internal/core/domain"
)

func TestGetModelReturns404ForUnknownModel(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/models/missing", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestReloadMapsLoadFailureTo502(t *testing.T) {
	deps := newTestDeps()
	deps.loads.err = domain.WrapError(domain.ErrLoadFailed, "load", errors.New("listing: 500"))
	handler := deps.handler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
}

func TestReloadMapsTemporaryFailureTo503(t *testing.T) {
	deps := newTestDeps()
	deps.loads.err = domain.WrapError(domain.ErrTemporary, "load", errors.New("circuit open"))
	handler := deps.handler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestTaxonomyUnavailableMapsTo502(t *testing.T) {
	deps := newTestDeps()
	deps.rankings.taxonomyErr = domain.WrapError(domain.ErrTaxonomyUnavailable, "taxonomy", errors.New("missing file"))
	handler := deps.handler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/taxonomy", nil))
	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
}

func TestWeaknessesRejectsBadThreshold(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/models/alpha/weaknesses?threshold=abc", nil))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/sessions/nope", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestScrollRequiresOffset(t *testing.T) {
	deps := newTestDeps()
	handler := deps.handler(config.Config{})
	created := createTestSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+created+"/scroll", strings.NewReader(`{"panel":"alpha"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "offset is required") {
		t.Fatalf("expected field name in error, got %s", res.Body.String())
	}
	if len(deps.sessions.scrolls) != 0 {
		t.Fatalf("invalid scroll must not reach the session")
	}
}

func TestOpenAPIValidationRejectsNegativeOffset(t *testing.T) {
	deps := newTestDeps()
	handler := deps.handler(config.Config{OpenAPIValidation: true})
	created := createTestSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+created+"/scroll", strings.NewReader(`{"panel":"alpha","offset":-4}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.Code, res.Body.String())
	}
	if !strings.Contains(res.Body.String(), "api schema") {
		t.Fatalf("expected schema rejection, got %s", res.Body.String())
	}
}

func TestReloadRequiresAPIKeyWhenConfigured(t *testing.T) {
	deps := newTestDeps()
	handler := deps.handler(config.Config{APIKey: "secret"})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/reload", nil))
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if deps.loads.calls != 0 {
		t.Fatalf("reload must not run without the api key")
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/reload", nil)
	req.Header.Set("X-Api-Key", "secret")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 with api key, got %d", res.Code)
	}
}

func TestUIReloadRequiresAPIKeyAndSession(t *testing.T) {
	deps := newTestDeps()
	handler := deps.handler(config.Config{APIKey: "secret", LoadTimeout: time.Minute})
	id := createTestSession(t, handler)

	post := func(target string, form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	res := post("/ui/"+id, url.Values{"action": {"reload"}})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without api key, got %d", res.Code)
	}
	res = post("/ui/"+id, url.Values{"action": {"reload"}, "api_key": {"wrong"}})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong api key, got %d", res.Code)
	}
	res = post("/ui/unknown", url.Values{"action": {"reload"}, "api_key": {"secret"}})
	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect home for unknown session, got %d %q", res.Code, res.Header().Get("Location"))
	}
	if deps.loads.calls != 0 {
		t.Fatalf("reload must not run, ran %d times", deps.loads.calls)
	}

	res = post("/ui/"+id, url.Values{"action": {"reload"}, "api_key": {"secret"}})
	if res.Code != http.StatusSeeOther || res.Header().Get("Location") != "/ui/"+id {
		t.Fatalf("expected redirect to viewer, got %d %q", res.Code, res.Header().Get("Location"))
	}
	if deps.loads.calls != 1 || !deps.loads.hasDeadline {
		t.Fatalf("expected one bounded reload, calls=%d deadline=%v", deps.loads.calls, deps.loads.hasDeadline)
	}
}

func TestMapErrorToHTTPStatusDefaultsTo500(t *testing.T) {
	if got := mapErrorToHTTPStatus(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
}
