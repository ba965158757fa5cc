package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"parkd/internal/detect"
	"parkd/internal/store"
	"parkd/pkg/types"
)

// Capturer is the slice of the capture orchestrator the manager needs.
type Capturer interface {
	Capture(ctx context.Context) (data []byte, adapter string, err error)
	Available(ctx context.Context) bool
	Adapters() []string
}

// Analyzer is the slice of the inference engine the manager needs.
type Analyzer interface {
	Run(ctx context.Context, data []byte, conf float64) ([]types.Detection, []byte, error)
	Loaded() bool
	Backend() string
}

// SpotStore is the persistence surface consumed by the dashboard and the
// analytics history. May be absent (nil Manager field) in one-shot runs.
type SpotStore interface {
	CountSpots(ctx context.Context) (int, error)
	CountOccupied(ctx context.Context) (int, error)
	InsertAnalytics(ctx context.Context, rate int, accuracy float64) error
	RecentAnalytics(ctx context.Context, limit int) ([]store.AnalyticsRecord, error)
}

// Config carries the static facts the manager reports through Status.
type Config struct {
	ModelPath string
	// HistoryLimit caps GET /api/stats samples. Zero uses the store default.
	HistoryLimit int
}

// Manager implements the service operations behind the HTTP API.
type Manager struct {
	cfg      Config
	capturer Capturer
	engine   Analyzer
	spots    SpotStore

	cache latestCache

	started  time.Time
	analyses atomic.Uint64

	mu      sync.Mutex
	lastErr string
}

func New(cfg Config, capturer Capturer, engine Analyzer, spots SpotStore) *Manager {
	return &Manager{
		cfg:      cfg,
		capturer: capturer,
		engine:   engine,
		spots:    spots,
		started:  time.Now(),
	}
}

// Snapshot captures a frame from the best available camera backend, runs the
// detector over it and records the resulting statistics. Nothing is cached
// or persisted when any stage fails.
func (m *Manager) Snapshot(ctx context.Context) (types.AnalysisResponse, error) {
	data, adapter, err := m.capturer.Capture(ctx)
	if err != nil {
		m.noteError(err)
		return types.AnalysisResponse{}, err
	}
	log.Info().Str("adapter", adapter).Int("bytes", len(data)).Msg("frame acquired")
	return m.analyze(ctx, data, "capture")
}

// Analyze runs the detector over a caller-supplied image, bypassing the
// capture orchestrator entirely.
func (m *Manager) Analyze(ctx context.Context, data []byte) (types.AnalysisResponse, error) {
	return m.analyze(ctx, data, "upload")
}

func (m *Manager) analyze(ctx context.Context, data []byte, source string) (types.AnalysisResponse, error) {
	dets, annotated, err := m.engine.Run(ctx, data, 0)
	if err != nil {
		m.noteError(err)
		return types.AnalysisResponse{}, err
	}
	stats := detect.Reduce(dets)
	now := time.Now().UTC()

	m.cache.put(latestResult{Stats: stats, Source: source, UpdatedAt: now})
	occupancyRate.Set(float64(stats.OccupancyRate))
	m.analyses.Add(1)
	m.clearError()

	if m.spots != nil {
		if err := m.spots.InsertAnalytics(ctx, stats.OccupancyRate, meanConfidence(dets)); err != nil {
			log.Warn().Err(err).Msg("failed to record analytics sample")
		}
	}

	if dets == nil {
		dets = []types.Detection{}
	}
	return types.AnalysisResponse{
		Image:      detect.DataURI(annotated),
		Stats:      stats,
		Detections: dets,
		Source:     source,
		UpdatedAt:  now.Format(time.RFC3339),
	}, nil
}

// Dashboard merges the store baseline with the latest cached statistics,
// preferring the cache when an analysis has run.
func (m *Manager) Dashboard(ctx context.Context) types.DashboardResponse {
	resp := types.DashboardResponse{Source: "store"}
	if m.spots != nil {
		total, err := m.spots.CountSpots(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to count spots")
		}
		occupied, err := m.spots.CountOccupied(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("failed to count occupied spots")
		}
		resp.TotalSpots = total
		resp.OccupiedSpots = occupied
		resp.FreeSpots = total - occupied
		if total > 0 {
			resp.OccupancyRate = occupied * 100 / total
		}
	}
	if latest, ok := m.cache.get(); ok {
		resp.TotalSpots = latest.Stats.TotalSpaces
		resp.OccupiedSpots = latest.Stats.Occupied
		resp.FreeSpots = latest.Stats.Empty
		resp.OccupancyRate = latest.Stats.OccupancyRate
		resp.Source = latest.Source
		resp.UpdatedAt = latest.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// History returns recent analytics samples for the occupancy chart,
// oldest first. Without a store it returns an empty list.
func (m *Manager) History(ctx context.Context) (types.HistoryResponse, error) {
	resp := types.HistoryResponse{Points: []types.HistoryPoint{}}
	if m.spots == nil {
		return resp, nil
	}
	recs, err := m.spots.RecentAnalytics(ctx, m.cfg.HistoryLimit)
	if err != nil {
		return resp, err
	}
	for _, r := range recs {
		resp.Points = append(resp.Points, types.HistoryPoint{
			Timestamp:     r.Timestamp.UTC().Format(time.RFC3339),
			OccupancyRate: r.OccupancyRate,
		})
	}
	return resp, nil
}

// Camera reports capture readiness without taking a frame.
func (m *Manager) Camera(ctx context.Context) types.CameraResponse {
	return types.CameraResponse{
		Ready:    m.capturer.Available(ctx),
		Adapters: m.capturer.Adapters(),
	}
}

// Status summarizes the daemon for GET /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	lastErr := m.lastErr
	m.mu.Unlock()
	now := time.Now()
	return types.StatusResponse{
		ModelLoaded:    m.engine.Loaded(),
		ModelPath:      m.cfg.ModelPath,
		Backend:        m.engine.Backend(),
		AnalysesTotal:  m.analyses.Load(),
		LastError:      lastErr,
		UptimeSeconds:  int64(now.Sub(m.started).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}

// Ready reports whether the daemon can serve requests. The model loads
// lazily, so readiness only requires the process to be up.
func (m *Manager) Ready() bool { return true }

func (m *Manager) noteError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}

func (m *Manager) clearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
}

func meanConfidence(dets []types.Detection) float64 {
	if len(dets) == 0 {
		return 0
	}
	var sum float64
	for _, d := range dets {
		sum += d.Confidence
	}
	return sum / float64(len(dets))
}
