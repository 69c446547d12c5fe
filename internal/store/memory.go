package store

import (
	"context"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"desal-monitor-backend/internal/model"
)

var (
	_ Store       = (*MemoryStore)(nil)
	_ ConfigStore = (*MemoryStore)(nil)
)

// approxRowBytes is the size estimate per in-memory row reported by Status.
const approxRowBytes = 128

// MemoryStore is the in-memory fallback used when persistence is disabled.
// Rows are kept newest first.
type MemoryStore struct {
	mu         sync.RWMutex
	rows       []model.SensorData
	nextID     int64
	configs    map[string]model.SensorConfig
	nextCfgID  int64
	thresholds Thresholds
	now        func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(thresholds Thresholds) *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		nextCfgID:  1,
		configs:    make(map[string]model.SensorConfig),
		thresholds: thresholds,
		now:        time.Now,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Seed fills the store with n sample rows spread over compartments 1..6,
// one hour apart, going back from now.
func (s *MemoryStore) Seed(n int) {
	intervals := []int{5, 10, 60}
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		compartment := rand.IntN(6) + 1
		interval := intervals[rand.IntN(len(intervals))]
		air := round1(25 + rand.Float64()*10)
		humidity := round1(60 + rand.Float64()*20)
		water := round1(20 + rand.Float64()*8)
		s.rows = append(s.rows, model.SensorData{
			ID:               s.nextID,
			CompartmentID:    &compartment,
			TemperatureAir:   &air,
			HumidityAir:      &humidity,
			TemperatureWater: &water,
			Interval:         &interval,
			Timestamp:        now.Add(-time.Duration(i) * time.Hour),
		})
		s.nextID++
	}
}

// Create prepends a new row with a fresh id and timestamp.
func (s *MemoryStore) Create(ctx context.Context, record *model.SensorData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.nextID
	record.Timestamp = s.now().UTC()
	s.nextID++
	s.rows = append([]model.SensorData{*record}, s.rows...)
	return nil
}

// List returns matching rows, newest first.
func (s *MemoryStore) List(ctx context.Context, criteria Criteria, limit int) ([]model.SensorData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SensorData, 0)
	for i := range s.rows {
		if criteria.Matches(&s.rows[i]) {
			out = append(out, s.rows[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a single row by id.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.SensorData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.rows {
		if s.rows[i].ID == id {
			row := s.rows[i]
			return &row, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes matching rows and returns how many were removed.
func (s *MemoryStore) Delete(ctx context.Context, criteria Criteria) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	var deleted int64
	for _, row := range s.rows {
		if criteria.Matches(&row) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return deleted, nil
}

// Count returns the number of matching rows.
func (s *MemoryStore) Count(ctx context.Context, criteria Criteria) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for i := range s.rows {
		if criteria.Matches(&s.rows[i]) {
			n++
		}
	}
	return n, nil
}

// Status reports the row count with a rough size estimate.
func (s *MemoryStore) Status(ctx context.Context) (*DatabaseStatus, error) {
	total, err := s.Count(ctx, Criteria{})
	if err != nil {
		return nil, err
	}
	status := newStatus(total, float64(total*approxRowBytes), s.thresholds)
	status.UsingMockData = true
	return status, nil
}

// Stats reports the row count, the compartments present and the time span covered.
func (s *MemoryStore) Stats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{TotalRecords: int64(len(s.rows)), Compartments: []int{}}
	seen := make(map[int]bool)
	for i := range s.rows {
		row := &s.rows[i]
		if row.CompartmentID != nil && !seen[*row.CompartmentID] {
			seen[*row.CompartmentID] = true
			stats.Compartments = append(stats.Compartments, *row.CompartmentID)
		}
		ts := row.Timestamp
		if stats.DateRange.Oldest == nil || ts.Before(*stats.DateRange.Oldest) {
			stats.DateRange.Oldest = &ts
		}
		if stats.DateRange.Newest == nil || ts.After(*stats.DateRange.Newest) {
			stats.DateRange.Newest = &ts
		}
	}
	sort.Ints(stats.Compartments)
	return stats, nil
}

// ListSensorConfigs returns mappings ordered by sort order, then sensor id.
func (s *MemoryStore) ListSensorConfigs(ctx context.Context, enabledOnly bool) ([]model.SensorConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SensorConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		if enabledOnly && !cfg.IsEnabled {
			continue
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].SensorID < out[j].SensorID
	})
	return out, nil
}

// UpsertSensorConfig writes a mapping; the last write for a sensor id wins.
func (s *MemoryStore) UpsertSensorConfig(ctx context.Context, cfg *model.SensorConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if existing, ok := s.configs[cfg.SensorID]; ok {
		cfg.ID = existing.ID
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.ID = s.nextCfgID
		cfg.CreatedAt = now
		s.nextCfgID++
	}
	cfg.UpdatedAt = now
	s.configs[cfg.SensorID] = *cfg
	return nil
}

// DeleteSensorConfig removes the mapping for a sensor id.
func (s *MemoryStore) DeleteSensorConfig(ctx context.Context, sensorID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.configs[sensorID]; !ok {
		return ErrNotFound
	}
	delete(s.configs, sensorID)
	return nil
}
