package manager

import (
	"context"
	"errors"
	"strings"
	"testing"

	"parkd/internal/store"
	"parkd/pkg/types"
)

type fakeCapturer struct {
	data    []byte
	adapter string
	err     error
	ready   bool
}

func (f *fakeCapturer) Capture(ctx context.Context) ([]byte, string, error) {
	return f.data, f.adapter, f.err
}
func (f *fakeCapturer) Available(ctx context.Context) bool { return f.ready }
func (f *fakeCapturer) Adapters() []string                 { return []string{"fake"} }

type fakeEngine struct {
	dets   []types.Detection
	out    []byte
	err    error
	loaded bool
}

func (f *fakeEngine) Run(ctx context.Context, data []byte, conf float64) ([]types.Detection, []byte, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.dets, f.out, nil
}
func (f *fakeEngine) Loaded() bool    { return f.loaded }
func (f *fakeEngine) Backend() string { return "fake" }

type fakeStore struct {
	spots    int
	occupied int
	inserted []int
	recs     []store.AnalyticsRecord
	err      error
}

func (f *fakeStore) CountSpots(ctx context.Context) (int, error)    { return f.spots, f.err }
func (f *fakeStore) CountOccupied(ctx context.Context) (int, error) { return f.occupied, f.err }
func (f *fakeStore) InsertAnalytics(ctx context.Context, rate int, accuracy float64) error {
	f.inserted = append(f.inserted, rate)
	return f.err
}
func (f *fakeStore) RecentAnalytics(ctx context.Context, limit int) ([]store.AnalyticsRecord, error) {
	return f.recs, f.err
}

func occupiedDets(occupied, empty int) []types.Detection {
	var dets []types.Detection
	for i := 0; i < occupied; i++ {
		dets = append(dets, types.Detection{Label: "occupied", Confidence: 0.9})
	}
	for i := 0; i < empty; i++ {
		dets = append(dets, types.Detection{Label: "empty", Confidence: 0.8})
	}
	return dets
}

func TestSnapshotAnalyzesCapturedFrame(t *testing.T) {
	st := &fakeStore{}
	m := New(Config{},
		&fakeCapturer{data: []byte("jpeg"), adapter: "rpicam-still"},
		&fakeEngine{dets: occupiedDets(1, 1), out: []byte("annotated")},
		st)

	resp, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if resp.Source != "capture" {
		t.Fatalf("source=%q", resp.Source)
	}
	if resp.Stats.Occupied != 1 || resp.Stats.Empty != 1 || resp.Stats.OccupancyRate != 50 {
		t.Fatalf("stats: %+v", resp.Stats)
	}
	if !strings.HasPrefix(resp.Image, "data:image/jpeg;base64,") {
		t.Fatalf("image=%q", resp.Image)
	}
	if len(st.inserted) != 1 || st.inserted[0] != 50 {
		t.Fatalf("analytics inserted: %v", st.inserted)
	}
}

func TestSnapshotCaptureFailureDoesNotCache(t *testing.T) {
	captureErr := errors.New("no camera could capture a frame")
	m := New(Config{}, &fakeCapturer{err: captureErr}, &fakeEngine{}, nil)

	if _, err := m.Snapshot(context.Background()); !errors.Is(err, captureErr) {
		t.Fatalf("err=%v", err)
	}
	if _, ok := m.cache.get(); ok {
		t.Fatal("cache populated after failed capture")
	}
	if got := m.Status().LastError; !strings.Contains(got, "no camera") {
		t.Fatalf("last error=%q", got)
	}
}

func TestAnalyzeUploadSource(t *testing.T) {
	m := New(Config{}, &fakeCapturer{}, &fakeEngine{dets: nil, out: []byte("img")}, nil)
	resp, err := m.Analyze(context.Background(), []byte("upload-bytes"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.Source != "upload" {
		t.Fatalf("source=%q", resp.Source)
	}
	if resp.Detections == nil {
		t.Fatal("detections must be an empty slice, not null")
	}
}

func TestDashboardStoreBaseline(t *testing.T) {
	m := New(Config{}, &fakeCapturer{}, &fakeEngine{}, &fakeStore{spots: 10, occupied: 4})
	d := m.Dashboard(context.Background())
	if d.TotalSpots != 10 || d.OccupiedSpots != 4 || d.FreeSpots != 6 || d.OccupancyRate != 40 {
		t.Fatalf("dashboard: %+v", d)
	}
	if d.Source != "store" {
		t.Fatalf("source=%q", d.Source)
	}
}

func TestDashboardPrefersLatestAnalysis(t *testing.T) {
	st := &fakeStore{spots: 10, occupied: 4}
	m := New(Config{}, &fakeCapturer{}, &fakeEngine{dets: occupiedDets(2, 1), out: []byte("img")}, st)

	if _, err := m.Analyze(context.Background(), []byte("x")); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	d := m.Dashboard(context.Background())
	if d.TotalSpots != 3 || d.OccupiedSpots != 2 || d.FreeSpots != 1 || d.OccupancyRate != 67 {
		t.Fatalf("dashboard: %+v", d)
	}
	if d.Source != "upload" || d.UpdatedAt == "" {
		t.Fatalf("source=%q updated_at=%q", d.Source, d.UpdatedAt)
	}
}

func TestDashboardLastWriteWins(t *testing.T) {
	eng := &fakeEngine{dets: occupiedDets(1, 0), out: []byte("img")}
	m := New(Config{}, &fakeCapturer{data: []byte("f"), adapter: "fake"}, eng, nil)

	if _, err := m.Analyze(context.Background(), []byte("x")); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	eng.dets = occupiedDets(0, 2)
	if _, err := m.Snapshot(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	d := m.Dashboard(context.Background())
	if d.Source != "capture" || d.OccupiedSpots != 0 || d.FreeSpots != 2 {
		t.Fatalf("dashboard: %+v", d)
	}
}

func TestAnalyzeEngineErrorLeavesCacheUntouched(t *testing.T) {
	eng := &fakeEngine{dets: occupiedDets(1, 1), out: []byte("img")}
	m := New(Config{}, &fakeCapturer{}, eng, nil)
	if _, err := m.Analyze(context.Background(), []byte("x")); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	eng.err = errors.New("forward pass failed")
	if _, err := m.Analyze(context.Background(), []byte("y")); err == nil {
		t.Fatal("expected engine error")
	}
	d := m.Dashboard(context.Background())
	if d.TotalSpots != 2 {
		t.Fatalf("cache mutated on failure: %+v", d)
	}
	if got := m.Status().LastError; got != "forward pass failed" {
		t.Fatalf("last error=%q", got)
	}
}

func TestHistory(t *testing.T) {
	st := &fakeStore{recs: []store.AnalyticsRecord{{OccupancyRate: 25}, {OccupancyRate: 75}}}
	m := New(Config{}, &fakeCapturer{}, &fakeEngine{}, st)
	h, err := m.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(h.Points) != 2 || h.Points[0].OccupancyRate != 25 || h.Points[1].OccupancyRate != 75 {
		t.Fatalf("history: %+v", h)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	m := New(Config{}, &fakeCapturer{}, &fakeEngine{}, nil)
	h, err := m.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.Points == nil || len(h.Points) != 0 {
		t.Fatalf("history: %+v", h)
	}
}

func TestStatusCountsAnalyses(t *testing.T) {
	m := New(Config{ModelPath: "/m/best.onnx"},
		&fakeCapturer{ready: true},
		&fakeEngine{loaded: true, out: []byte("img")}, nil)
	if _, err := m.Analyze(context.Background(), []byte("x")); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	s := m.Status()
	if s.AnalysesTotal != 1 || !s.ModelLoaded || s.Backend != "fake" || s.ModelPath != "/m/best.onnx" {
		t.Fatalf("status: %+v", s)
	}
	if s.LastError != "" {
		t.Fatalf("last error=%q", s.LastError)
	}
}

func TestCamera(t *testing.T) {
	m := New(Config{}, &fakeCapturer{ready: true}, &fakeEngine{}, nil)
	c := m.Camera(context.Background())
	if !c.Ready || len(c.Adapters) != 1 || c.Adapters[0] != "fake" {
		t.Fatalf("camera: %+v", c)
	}
}
