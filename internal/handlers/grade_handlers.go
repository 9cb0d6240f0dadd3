package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"grade-platform/internal/models"
	"grade-platform/internal/scales"
	"grade-platform/internal/services"
	"grade-platform/pkg/logging"
	"grade-platform/pkg/metrics"
)

// HealthChecker is a dependency reported by /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// GradeHandler handles grade conversion API endpoints
type GradeHandler struct {
	holder  *services.ServiceHolder
	checks  map[string]HealthChecker
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// HandlerOption configures a GradeHandler
type HandlerOption func(*GradeHandler)

// WithHealthCheck adds a named dependency to /health
func WithHealthCheck(name string, hc HealthChecker) HandlerOption {
	return func(h *GradeHandler) {
		h.checks[name] = hc
	}
}

// NewGradeHandler creates a new grade handler reading the service from holder on every request
func NewGradeHandler(
	holder *services.ServiceHolder,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	opts ...HandlerOption,
) *GradeHandler {
	h := &GradeHandler{
		holder:  holder,
		checks:  make(map[string]HealthChecker),
		logger:  logger,
		metrics: metricsCollector,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ConvertResponse is returned by GET /api/convert
type ConvertResponse struct {
	From   models.Grade   `json:"from"`
	To     string         `json:"to"`
	Grades []models.Grade `json:"grades"`
}

// ConvertOneResponse is returned by GET /api/convert/one; Grade is null when absent
type ConvertOneResponse struct {
	From         models.Grade  `json:"from"`
	To           string        `json:"to"`
	SourcePolicy string        `json:"source_policy"`
	TargetPolicy string        `json:"target_policy"`
	Grade        *models.Grade `json:"grade"`
}

// ConvertAllResponse is returned by GET /api/convert/all
type ConvertAllResponse struct {
	From        models.Grade         `json:"from"`
	Conversions services.Conversions `json:"conversions"`
}

// ScaleInfo describes one registered scale
type ScaleInfo struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Discipline scales.Discipline `json:"discipline,omitempty"`
	Indexes    int               `json:"indexes"`
	Grades     int               `json:"grades"`
}

// VariantsResponse is returned by GET /api/scales/{scale}/index/{index}
type VariantsResponse struct {
	Scale    string   `json:"scale"`
	Index    int      `json:"index"`
	Variants []string `json:"variants"`
}

// Convert handles GET /api/convert
func (h *GradeHandler) Convert(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/convert"
	defer h.observe(endpoint, time.Now())

	from, err := gradeParam(r)
	if err == nil {
		err = required("to", r.URL.Query().Get("to"))
	}
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	to := r.URL.Query().Get("to")

	grades, err := h.holder.Load().Convert(from, to)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, ConvertResponse{From: from, To: models.CanonicalScaleID(to), Grades: grades}, http.StatusOK)
}

// ConvertOne handles GET /api/convert/one
func (h *GradeHandler) ConvertOne(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/convert/one"
	defer h.observe(endpoint, time.Now())

	q := r.URL.Query()
	from, err := gradeParam(r)
	if err == nil {
		err = required("to", q.Get("to"))
	}
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	srcPolicy, err := models.ParsePrimaryIndexPolicy(q.Get("source_policy"))
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}
	tgtPolicy, err := models.ParseTargetVariantPolicy(q.Get("target_policy"))
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	grade, ok, err := h.holder.Load().ConvertOne(from, q.Get("to"), srcPolicy, tgtPolicy)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	response := ConvertOneResponse{
		From:         from,
		To:           models.CanonicalScaleID(q.Get("to")),
		SourcePolicy: srcPolicy.String(),
		TargetPolicy: tgtPolicy.String(),
	}
	if ok {
		response.Grade = &grade
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// ConvertAll handles GET /api/convert/all
func (h *GradeHandler) ConvertAll(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/convert/all"
	defer h.observe(endpoint, time.Now())

	from, err := gradeParam(r)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	includeSource := false
	if raw := r.URL.Query().Get("include_source"); raw != "" {
		includeSource, err = strconv.ParseBool(raw)
		if err != nil {
			h.handleError(w, r, endpoint, &models.ValidationError{
				Field:   "include_source",
				Value:   raw,
				Message: fmt.Sprintf("invalid include_source %q, expected true or false", raw),
			})
			return
		}
	}

	all, err := h.holder.Load().ConvertToAll(from, includeSource)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, ConvertAllResponse{From: from, Conversions: all}, http.StatusOK)
}

// ListScales handles GET /api/scales
func (h *GradeHandler) ListScales(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/scales"
	defer h.observe(endpoint, time.Now())

	registered := h.holder.Load().Scales()
	infos := make([]ScaleInfo, 0, len(registered))
	for _, s := range registered {
		info := ScaleInfo{ID: s.ID(), Name: s.ID(), Indexes: s.Len(), Grades: len(s.Keys())}
		if def, ok := scales.Lookup(s.ID()); ok {
			info.Name = def.Name
			info.Discipline = def.Discipline
		}
		infos = append(infos, info)
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, map[string]interface{}{"scales": infos}, http.StatusOK)
}

// Variants handles GET /api/scales/{scale}/index/{index}
func (h *GradeHandler) Variants(w http.ResponseWriter, r *http.Request) {
	const endpoint = "/api/scales/{scale}/index/{index}"
	defer h.observe(endpoint, time.Now())

	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil || index < 1 {
		h.handleError(w, r, endpoint, &models.ValidationError{
			Field:   "index",
			Value:   vars["index"],
			Message: fmt.Sprintf("invalid index %q, expected a positive integer", vars["index"]),
		})
		return
	}

	scale, err := h.holder.Load().Scale(vars["scale"])
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	variants := scale.VariantsAt(models.DifficultyIndex(index))
	if len(variants) == 0 {
		h.handleError(w, r, endpoint, &models.GradeError{Kind: models.ErrIndexOutOfRange, Scale: scale.ID(), Index: index})
		return
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, VariantsResponse{Scale: scale.ID(), Index: index, Variants: variants}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *GradeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"scales":    len(h.holder.Load().Scales()),
	}
	code := http.StatusOK

	for name, hc := range h.checks {
		if err := hc.HealthCheck(ctx); err != nil {
			h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Dependency unhealthy", logging.Fields{
				"dependency": name,
			}, err)
			status["status"] = "unhealthy"
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, code)
}

func gradeParam(r *http.Request) (models.Grade, error) {
	q := r.URL.Query()
	if err := required("value", q.Get("value")); err != nil {
		return models.Grade{}, err
	}
	if err := required("from", q.Get("from")); err != nil {
		return models.Grade{}, err
	}
	return models.NewGrade(q.Get("value"), q.Get("from")), nil
}

func required(field, value string) error {
	if value == "" {
		return &models.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("missing required query parameter %q", field),
		}
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) (int, string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, models.ErrGradeNotFound):
		return http.StatusNotFound, "grade_not_found"
	case errors.Is(err, models.ErrScaleNotRegistered):
		return http.StatusNotFound, "scale_not_registered"
	case errors.Is(err, models.ErrIndexOutOfRange):
		return http.StatusNotFound, "index_out_of_range"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *GradeHandler) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	code, errorType := statusFor(err)
	h.metrics.RecordAPIError(errorType, endpoint)

	message := err.Error()
	if code == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		message = "internal error"
	}

	h.sendError(w, r, endpoint, message, code)
}

func (h *GradeHandler) observe(endpoint string, start time.Time) {
	h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// sendJSON sends a JSON response
func (h *GradeHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *GradeHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all grade API routes
func (h *GradeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/convert", h.Convert).Methods("GET")
	router.HandleFunc("/api/convert/one", h.ConvertOne).Methods("GET")
	router.HandleFunc("/api/convert/all", h.ConvertAll).Methods("GET")
	router.HandleFunc("/api/scales", h.ListScales).Methods("GET")
	router.HandleFunc("/api/scales/{scale}/index/{index}", h.Variants).Methods("GET")
	router.HandleFunc(openAPIPath, OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
