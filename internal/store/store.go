package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"parkd/internal/common/fsutil"
)

// Store handles SQLite persistence for zones, spots and analytics history.
type Store struct {
	db *sql.DB
}

// ZoneRecord is one parking zone.
type ZoneRecord struct {
	ID         int64
	Name       string
	TotalSpots int
}

// SpotRecord is one parking spot inside a zone.
type SpotRecord struct {
	ID          int64
	SpotNumber  string
	ZoneID      int64
	IsOccupied  bool
	LastUpdated time.Time
	SensorID    string
}

// AnalyticsRecord is one historical occupancy sample.
type AnalyticsRecord struct {
	ID            int64
	Timestamp     time.Time
	OccupancyRate int
	AccuracyScore float64
}

// Open creates the database connection, running migrations on the way.
func Open(dbPath string) (*Store, error) {
	path, err := fsutil.ExpandHome(dbPath)
	if err != nil {
		return nil, err
	}
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// WAL for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS parking_zones (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			total_spots INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS parking_spots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			spot_number TEXT NOT NULL,
			zone_id INTEGER NOT NULL,
			is_occupied INTEGER DEFAULT 0,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
			sensor_id TEXT,
			FOREIGN KEY (zone_id) REFERENCES parking_zones(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS analytics_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			occupancy_rate INTEGER NOT NULL,
			accuracy_score REAL DEFAULT 0.0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analytics_timestamp ON analytics_data(timestamp)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// seed inserts a default zone into an empty database so spots added later
// always have a parent. No spots are fabricated.
func (s *Store) seed() error {
	var zones int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM parking_zones`).Scan(&zones); err != nil {
		return fmt.Errorf("count zones: %w", err)
	}
	if zones > 0 {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO parking_zones (name, total_spots) VALUES (?, ?)`, "Main Lot", 0)
	if err != nil {
		return fmt.Errorf("seed default zone: %w", err)
	}
	return nil
}

// DefaultZone returns the first zone, creating order by id.
func (s *Store) DefaultZone(ctx context.Context) (ZoneRecord, error) {
	var z ZoneRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, total_spots FROM parking_zones ORDER BY id LIMIT 1`).
		Scan(&z.ID, &z.Name, &z.TotalSpots)
	return z, err
}

// CountSpots returns the total number of known parking spots.
func (s *Store) CountSpots(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_spots`).Scan(&n)
	return n, err
}

// CountOccupied returns the number of spots currently marked occupied.
func (s *Store) CountOccupied(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_spots WHERE is_occupied = 1`).Scan(&n)
	return n, err
}

// AddZone inserts a parking zone and returns its id.
func (s *Store) AddZone(ctx context.Context, name string, totalSpots int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_zones (name, total_spots) VALUES (?, ?)`, name, totalSpots)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddSpot inserts a parking spot and returns its id.
func (s *Store) AddSpot(ctx context.Context, zoneID int64, spotNumber string, occupied bool) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO parking_spots (spot_number, zone_id, is_occupied) VALUES (?, ?, ?)`,
		spotNumber, zoneID, occupied)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SetSpotOccupied flips a spot's occupancy flag.
func (s *Store) SetSpotOccupied(ctx context.Context, spotID int64, occupied bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE parking_spots SET is_occupied = ?, last_updated = CURRENT_TIMESTAMP WHERE id = ?`,
		occupied, spotID)
	return err
}

// InsertAnalytics appends one occupancy sample to the history.
func (s *Store) InsertAnalytics(ctx context.Context, rate int, accuracy float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analytics_data (occupancy_rate, accuracy_score) VALUES (?, ?)`,
		rate, accuracy)
	return err
}

// RecentAnalytics returns up to limit samples, oldest first.
func (s *Store) RecentAnalytics(ctx context.Context, limit int) ([]AnalyticsRecord, error) {
	if limit <= 0 {
		limit = 24
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, occupancy_rate, accuracy_score
		 FROM analytics_data ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []AnalyticsRecord
	for rows.Next() {
		var r AnalyticsRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.OccupancyRate, &r.AccuracyScore); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse into chronological order
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}
