package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grade-platform/internal/repository"
	"grade-platform/internal/services"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

type stubChecker struct {
	err error
}

func (s stubChecker) HealthCheck(ctx context.Context) error {
	return s.err
}

func newTestHandler(t *testing.T, opts ...HandlerOption) (*GradeHandler, *metrics.Collector) {
	t.Helper()
	collector, _ := metrics.NewTestCollector()
	loader := services.NewScaleLoader(repository.NewEmbeddedRepository(), logging.Discard(), collector)
	svc, err := loader.Build(context.Background(), nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return NewGradeHandler(services.NewServiceHolder(svc), logging.Discard(), collector, opts...), collector
}

func serve(t *testing.T, h *GradeHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
}

func TestGradeHandler_Convert(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		checkValues func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name:       "split cell in target",
			target:     "/api/convert?value=6c%2B&from=fr&to=yds",
			wantStatus: http.StatusOK,
			checkValues: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp ConvertResponse
				decode(t, rec, &resp)
				if resp.To != "YDS" || resp.From.Scale != "FR" {
					t.Errorf("unexpected envelope %+v", resp)
				}
				if len(resp.Grades) != 2 || resp.Grades[0].Value != "5.11b" || resp.Grades[1].Value != "5.11c" {
					t.Errorf("grades = %+v, want [5.11b 5.11c]", resp.Grades)
				}
			},
		},
		{
			name:       "empty target encodes as array",
			target:     "/api/convert?value=9b&from=FR&to=SAXON",
			wantStatus: http.StatusOK,
			checkValues: func(t *testing.T, rec *httptest.ResponseRecorder) {
				if !strings.Contains(rec.Body.String(), `"grades":[]`) {
					t.Errorf("body = %s, want empty grades array", rec.Body.String())
				}
			},
		},
		{
			name:       "missing parameter",
			target:     "/api/convert?value=6c&from=FR",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown grade",
			target:     "/api/convert?value=12z&from=FR&to=YDS",
			wantStatus: http.StatusNotFound,
			checkValues: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp ErrorResponse
				decode(t, rec, &resp)
				if resp.Code != http.StatusNotFound || !strings.Contains(resp.Message, "grade not found") {
					t.Errorf("unexpected error body %+v", resp)
				}
			},
		},
		{
			name:       "unknown scale",
			target:     "/api/convert?value=6c&from=FR&to=XYZ",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.checkValues != nil {
				tt.checkValues(t, rec)
			}
		})
	}
}

func TestGradeHandler_ConvertOne(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantGrade  string // empty means null
	}{
		{"default policies", "/api/convert/one?value=7a&from=FR&to=BR", http.StatusOK, "7c"},
		{"last variant", "/api/convert/one?value=7a&from=FR&to=BR&target_policy=last", http.StatusOK, "8a"},
		{"middle source index", "/api/convert/one?value=6a&from=UK_TECH&to=FR&source_policy=middle", http.StatusOK, "6c+"},
		{"absent target cell", "/api/convert/one?value=9b&from=FR&to=SAXON", http.StatusOK, ""},
		{"bad policy", "/api/convert/one?value=7a&from=FR&to=BR&source_policy=widest", http.StatusBadRequest, ""},
		{"unknown grade", "/api/convert/one?value=nope&from=FR&to=BR", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code != http.StatusOK {
				return
			}
			var resp ConvertOneResponse
			decode(t, rec, &resp)
			switch {
			case tt.wantGrade == "" && resp.Grade != nil:
				t.Errorf("grade = %+v, want null", resp.Grade)
			case tt.wantGrade != "" && (resp.Grade == nil || resp.Grade.Value != tt.wantGrade):
				t.Errorf("grade = %+v, want %s", resp.Grade, tt.wantGrade)
			}
		})
	}
}

func TestGradeHandler_ConvertAll(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(t, h, "/api/convert/all?value=6c%2B&from=FR&include_source=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Conversions map[string][]struct {
			Value string `json:"value"`
		} `json:"conversions"`
	}
	decode(t, rec, &resp)
	if len(resp.Conversions) != 14 {
		t.Errorf("got %d scales, want 14", len(resp.Conversions))
	}
	if src := resp.Conversions["FR"]; len(src) != 1 || src[0].Value != "6c+" {
		t.Errorf("source entry = %+v", src)
	}
	if uiaa := resp.Conversions["UIAA"]; len(uiaa) != 1 || uiaa[0].Value != "VIII-" {
		t.Errorf("UIAA entry = %+v", uiaa)
	}
	// registration order survives encoding
	body := rec.Body.String()
	if strings.Index(body, `"UIAA"`) > strings.Index(body, `"FONT"`) {
		t.Errorf("conversions out of registration order: %s", body)
	}

	rec = serve(t, h, "/api/convert/all?value=6c%2B&from=FR")
	var withoutSource struct {
		Conversions map[string]json.RawMessage `json:"conversions"`
	}
	decode(t, rec, &withoutSource)
	if _, ok := withoutSource.Conversions["FR"]; ok {
		t.Error("source scale present without include_source")
	}
	if len(withoutSource.Conversions) != 13 {
		t.Errorf("got %d scales without source, want 13", len(withoutSource.Conversions))
	}

	rec = serve(t, h, "/api/convert/all?value=6c%2B&from=FR&include_source=maybe")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for invalid include_source", rec.Code)
	}
}

func TestGradeHandler_ScalesAndVariants(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(t, h, "/api/scales")
	var list struct {
		Scales []ScaleInfo `json:"scales"`
	}
	decode(t, rec, &list)
	if len(list.Scales) != 14 || list.Scales[0].ID != "UIAA" {
		t.Fatalf("scales = %+v", list.Scales)
	}
	if list.Scales[1].Name != "French sport" || list.Scales[1].Indexes == 0 {
		t.Errorf("FR info = %+v", list.Scales[1])
	}

	tests := []struct {
		name       string
		target     string
		wantStatus int
		want       []string
	}{
		{"split cell", "/api/scales/br/index/16", http.StatusOK, []string{"7c", "8a"}},
		{"empty cell", "/api/scales/SAXON/index/30", http.StatusNotFound, nil},
		{"bad index", "/api/scales/FR/index/zero", http.StatusBadRequest, nil},
		{"negative index", "/api/scales/FR/index/-1", http.StatusBadRequest, nil},
		{"unknown scale", "/api/scales/XYZ/index/1", http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.want == nil {
				return
			}
			var resp VariantsResponse
			decode(t, rec, &resp)
			if strings.Join(resp.Variants, ",") != strings.Join(tt.want, ",") {
				t.Errorf("variants = %v, want %v", resp.Variants, tt.want)
			}
		})
	}
}

func TestGradeHandler_HealthCheck(t *testing.T) {
	h, _ := newTestHandler(t, WithHealthCheck("database", stubChecker{}))
	if rec := serve(t, h, "/health"); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	h, _ = newTestHandler(t, WithHealthCheck("database", stubChecker{err: errors.New("connection refused")}))
	rec := serve(t, h, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var status map[string]interface{}
	decode(t, rec, &status)
	if status["status"] != "unhealthy" || status["database"] != "connection refused" {
		t.Errorf("status body = %v", status)
	}
}

func TestStatusFor_UnknownErrorIsInternal(t *testing.T) {
	code, kind := statusFor(errors.New("disk on fire"))
	if code != http.StatusInternalServerError || kind != "internal_error" {
		t.Errorf("statusFor() = %d, %s", code, kind)
	}
}

func TestOpenAPISpec(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h, "/api/docs/openapi.json")
	var doc struct {
		Paths map[string]interface{} `json:"paths"`
	}
	decode(t, rec, &doc)
	for _, path := range []string{"/api/convert", "/api/convert/one", "/api/convert/all", "/api/scales", "/health"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("openapi document missing %s", path)
		}
	}
}

func TestNewRouter(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, promhttp.Handler(), []string{"https://grades.example"})

	req := httptest.NewRequest(http.MethodOptions, "/api/scales", nil)
	req.Header.Set("Origin", "https://grades.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://grades.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/convert?value=6c&from=FR&to=UIAA", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("convert through router status = %d", rec.Code)
	}
}

func TestSwaggerUI(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := serve(t, h, "/api/docs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Grade Platform API Documentation") || !strings.Contains(body, "openapi.json") {
		t.Errorf("page missing title or spec url")
	}
}
