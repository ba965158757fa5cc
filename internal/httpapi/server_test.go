package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"parkd/internal/capture"
	"parkd/internal/detect"
	"parkd/pkg/types"
)

type mockService struct {
	analysis  types.AnalysisResponse
	dashboard types.DashboardResponse
	history   types.HistoryResponse
	camera    types.CameraResponse
	status    types.StatusResponse
	ready     bool

	snapErr    error
	analyzeErr error

	gotUpload []byte
}

func (m *mockService) Snapshot(ctx context.Context) (types.AnalysisResponse, error) {
	if m.snapErr != nil {
		return types.AnalysisResponse{}, m.snapErr
	}
	return m.analysis, nil
}

func (m *mockService) Analyze(ctx context.Context, data []byte) (types.AnalysisResponse, error) {
	m.gotUpload = data
	if m.analyzeErr != nil {
		return types.AnalysisResponse{}, m.analyzeErr
	}
	return m.analysis, nil
}

func (m *mockService) Dashboard(ctx context.Context) types.DashboardResponse { return m.dashboard }
func (m *mockService) History(ctx context.Context) (types.HistoryResponse, error) {
	return m.history, nil
}
func (m *mockService) Camera(ctx context.Context) types.CameraResponse { return m.camera }
func (m *mockService) Status() types.StatusResponse                    { return m.status }
func (m *mockService) Ready() bool                                     { return m.ready }

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func TestDashboardHandler(t *testing.T) {
	svc := &mockService{dashboard: types.DashboardResponse{TotalSpots: 12, OccupiedSpots: 9, FreeSpots: 3, OccupancyRate: 75}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("content-type=%s", ct)
	}
	var body types.DashboardResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.OccupancyRate != 75 || body.FreeSpots != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{Backend: "dnn", AnalysesTotal: 4}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Backend != "dnn" || body.AnalysesTotal != 4 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestCameraHandler(t *testing.T) {
	svc := &mockService{camera: types.CameraResponse{Ready: true, Adapters: []string{"rpicam-still"}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/camera", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.CameraResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !body.Ready || len(body.Adapters) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHistoryHandler(t *testing.T) {
	svc := &mockService{history: types.HistoryResponse{Points: []types.HistoryPoint{{OccupancyRate: 50}}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(body.Points) != 1 || body.Points[0].OccupancyRate != 50 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	r := NewMux(&mockService{ready: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz_NotReady(t *testing.T) {
	r := NewMux(&mockService{ready: false})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "loading") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestSnapshotOK(t *testing.T) {
	svc := &mockService{analysis: types.AnalysisResponse{Source: "capture", Stats: types.Stats{TotalSpaces: 5}}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/snapshot", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.AnalysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Source != "capture" || body.Stats.TotalSpaces != 5 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSnapshotNoCameraMaps503(t *testing.T) {
	svc := &mockService{snapErr: capture.ErrNoCamera([]string{"rpicam-still: not found"})}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/snapshot", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(body.Error, "no camera") {
		t.Fatalf("unexpected error: %q", body.Error)
	}
}

func TestAnalyzeRawBody(t *testing.T) {
	svc := &mockService{analysis: types.AnalysisResponse{Source: "upload"}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("jpegbytes"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if string(svc.gotUpload) != "jpegbytes" {
		t.Fatalf("upload=%q", svc.gotUpload)
	}
}

func TestAnalyzeMultipart(t *testing.T) {
	svc := &mockService{analysis: types.AnalysisResponse{Source: "upload"}}
	r := NewMux(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "lot.jpg")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	fw.Write([]byte("jpegbytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if string(svc.gotUpload) != "jpegbytes" {
		t.Fatalf("upload=%q", svc.gotUpload)
	}
}

func TestAnalyzeEmptyBody(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestAnalyzeDecodeErrorMaps400(t *testing.T) {
	svc := &mockService{analyzeErr: detect.ErrDecode("invalid image data")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("not-an-image"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestAnalyzeInferenceErrorMaps500(t *testing.T) {
	svc := &mockService{analyzeErr: detect.ErrInference("forward pass failed")}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", bytes.NewBufferString("img"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestSnapshotHTTPErrorOverride(t *testing.T) {
	svc := &mockService{snapErr: mockHTTPError{msg: "busy", code: http.StatusTooManyRequests}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/snapshot", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
