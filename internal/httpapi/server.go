package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkd/internal/capture"
	"parkd/internal/detect"
	"parkd/internal/provision"
	"parkd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Snapshot(ctx context.Context) (types.AnalysisResponse, error)
	Analyze(ctx context.Context, data []byte) (types.AnalysisResponse, error)
	Dashboard(ctx context.Context) types.DashboardResponse
	History(ctx context.Context) (types.HistoryResponse, error)
	Camera(ctx context.Context) types.CameraResponse
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(requestLogger)
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	hub := newStatsHub()

	// Dashboard godoc
	// @Summary  Current occupancy for the dashboard card
	// @Produce  json
	// @Success  200 {object} types.DashboardResponse
	// @Router   /dashboard [get]
	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Dashboard(r.Context()))
	})

	// History godoc
	// @Summary  Occupancy history samples for the chart
	// @Produce  json
	// @Success  200 {object} types.HistoryResponse
	// @Router   /api/stats [get]
	r.Get("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.History(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// Camera godoc
	// @Summary  Capture readiness probe; never takes a frame
	// @Produce  json
	// @Success  200 {object} types.CameraResponse
	// @Router   /camera [get]
	r.Get("/camera", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Camera(r.Context()))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	// Snapshot godoc
	// @Summary  Capture a frame and analyze parking occupancy
	// @Produce  json
	// @Success  200 {object} types.AnalysisResponse
	// @Failure  503 {object} types.ErrorResponse "no camera available"
	// @Router   /snapshot [post]
	r.Post("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		resp, err := svc.Snapshot(ctx)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, r, err, "snapshot", start)
			return
		}
		hub.broadcastResult(resp)
		writeJSON(w, http.StatusOK, resp)
	})

	// Analyze godoc
	// @Summary  Analyze an uploaded image for parking occupancy
	// @Accept   multipart/form-data
	// @Produce  json
	// @Success  200 {object} types.AnalysisResponse
	// @Failure  400 {object} types.ErrorResponse "unreadable image"
	// @Router   /analyze [post]
	r.Post("/analyze", func(w http.ResponseWriter, r *http.Request) {
		data, err := readImageBody(w, r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		start := time.Now()
		resp, err := svc.Analyze(ctx, data)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, r, err, "analyze", start)
			return
		}
		hub.broadcastResult(resp)
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/ws/stats", hub.handle)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// readImageBody extracts upload bytes from a multipart "image" field or a
// raw request body, bounded by the configured size limit.
func readImageBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(strings.ToLower(ct), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, errBadUpload("invalid multipart body")
		}
		f, _, err := r.FormFile("image")
		if err != nil {
			return nil, errBadUpload("please upload an image in the \"image\" field")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil || len(data) == 0 {
			return nil, errBadUpload("empty image upload")
		}
		return data, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil || len(data) == 0 {
		return nil, errBadUpload("empty request body")
	}
	return data, nil
}

type badUploadError string

func errBadUpload(msg string) error    { return badUploadError(msg) }
func (e badUploadError) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers already sent, nothing sensible left to do
		logEvent().Err(err).Msg("failed to encode response")
	}
}

// writeServiceError maps core error kinds to HTTP status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string, start time.Time) {
	status := http.StatusInternalServerError
	switch {
	case capture.IsNoCamera(err), provision.IsProvisioning(err):
		status = http.StatusServiceUnavailable
	case detect.IsDecode(err):
		status = http.StatusBadRequest
	}
	if he, ok := err.(HTTPError); ok {
		status = he.StatusCode()
	}
	logRequestError(r, op, status, time.Since(start), err)
	writeJSONError(w, status, err.Error())
}
