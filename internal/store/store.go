// Package store keeps the in-memory telemetry state: a bounded ring of
// fused weather records, latest-value caches for tower tilt and device
// heartbeats, and the conductor-temperature alert table that feeds the
// foreign-object fusion flag.
package store

import (
	"math"
	"sync"
	"time"

	"github.com/linescope/linescope/internal/types"
	"github.com/linescope/linescope/pkg/i1"
	"go.uber.org/zap"
)

// Defaults match a fleet reporting every five minutes for a day.
const (
	DefaultMaxRecords     = 288
	DefaultAlertThreshold = 80.0
	DefaultAlertTimeout   = 600
)

// beijing is the display zone for record timestamps. A fixed offset is
// deliberate: Asia/Shanghai has no DST, and a fixed zone works on hosts
// without IANA data.
var beijing = time.FixedZone("CST", 8*60*60)

type alertEntry struct {
	timestamp uint32
	active    bool
}

// Options configures a TelemetryStore. Zero fields fall back to the
// package defaults; nothing here is required.
type Options struct {
	MaxRecords     int
	AlertThreshold float64
	AlertTimeout   int
}

// TelemetryStore is safe for concurrent use. One mutex guards all state:
// ring, caches, alert table, counters and knobs. Every read returns an
// independent copy, so holding a returned value never aliases store
// state.
type TelemetryStore struct {
	mu sync.Mutex

	maxRecords     int
	alertThreshold float64
	alertTimeout   int

	records         []types.StoredRecord
	alerts          map[string]alertEntry
	latestTilt      map[string]i1.TowerTiltPayload
	latestHeartbeat *i1.HeartbeatPayload

	updateCounter uint64

	logger *zap.SugaredLogger
}

// New creates a TelemetryStore with the given options.
func New(opts Options, logger *zap.SugaredLogger) *TelemetryStore {
	if opts.MaxRecords <= 0 {
		opts.MaxRecords = DefaultMaxRecords
	}
	if opts.AlertThreshold == 0 {
		opts.AlertThreshold = DefaultAlertThreshold
	}
	if opts.AlertTimeout <= 0 {
		opts.AlertTimeout = DefaultAlertTimeout
	}

	return &TelemetryStore{
		maxRecords:     opts.MaxRecords,
		alertThreshold: opts.AlertThreshold,
		alertTimeout:   opts.AlertTimeout,
		records:        make([]types.StoredRecord, 0, opts.MaxRecords),
		alerts:         make(map[string]alertEntry),
		latestTilt:     make(map[string]i1.TowerTiltPayload),
		logger:         logger,
	}
}

// Configure adjusts store knobs at runtime. A nil field leaves the knob
// unchanged. Shrinking the ring keeps the newest records; max_records
// below 1 is clamped rather than rejected.
func (s *TelemetryStore) Configure(maxRecords *int, alertThreshold *float64, alertTimeout *int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if maxRecords != nil && *maxRecords != s.maxRecords {
		n := *maxRecords
		if n < 1 {
			n = 1
		}
		s.maxRecords = n
		if len(s.records) > n {
			trimmed := make([]types.StoredRecord, n)
			copy(trimmed, s.records[len(s.records)-n:])
			s.records = trimmed
		}
	}
	if alertThreshold != nil {
		s.alertThreshold = *alertThreshold
	}
	if alertTimeout != nil {
		n := *alertTimeout
		if n < 1 {
			n = 1
		}
		s.alertTimeout = n
	}
}

// AddWeather fuses a weather payload into a StoredRecord, stamps the
// foreign-object flag from the current alert table, and appends it to
// the ring, evicting the oldest record when full. The stored record is
// returned.
func (s *TelemetryStore) AddWeather(p i1.WeatherPayload, frameNo uint8) types.StoredRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := types.StoredRecord{
		TimestampBeijing:       formatBeijing(p.TimeStamp),
		SwaySpeedDps:           round2(float64(p.StandardWindSpeed)),
		TemperatureC:           round2(float64(p.AirTemperature)),
		HumidityRH:             round2(float64(p.Humidity)),
		PressureHPa:            round2(float64(p.AirPressure)),
		Lux:                    round2(float64(p.RadiationIntensity)),
		WireForeignObject:      s.wireFlagLocked(p.Component, p.TimeStamp),
		ComponentID:            p.Component,
		FrameNo:                frameNo,
		WindSpeedAvg10Min:      round2(float64(p.AvgWindSpeed)),
		WindDirectionDeg:       float64(p.AvgWindDirection),
		WindSpeedMax:           round2(float64(p.MaxWindSpeed)),
		WindSpeedExtreme:       round2(float64(p.ExtremeWindSpeed)),
		PrecipitationMM:        round2(float64(p.Precipitation)),
		PrecipitationIntensity: round2(float64(p.PrecipitationIntensity)),
	}

	if len(s.records) >= s.maxRecords {
		// Oldest-out. Shift in place to keep the backing array bounded.
		copy(s.records, s.records[1:])
		s.records = s.records[:len(s.records)-1]
	}
	s.records = append(s.records, rec)
	s.updateCounter++

	if s.logger != nil {
		s.logger.Debugf("weather record stored: component=%s frame_no=%d total=%d",
			rec.ComponentID, rec.FrameNo, len(s.records))
	}
	return rec
}

// AddLineTemperature records the newest conductor-temperature report for
// a component and whether it crosses the alert threshold. Only the alert
// table changes; past weather records keep their flags.
func (s *TelemetryStore) AddLineTemperature(p i1.LineTemperaturePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts[p.Component] = alertEntry{
		timestamp: p.TimeStamp,
		active:    float64(p.LineTemperature) >= s.alertThreshold,
	}
	s.updateCounter++
}

// AddTowerTilt overwrites the latest tilt sample for the component.
func (s *TelemetryStore) AddTowerTilt(p i1.TowerTiltPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latestTilt[p.Component] = p
	s.updateCounter++
}

// AddHeartbeat overwrites the latest heartbeat.
func (s *TelemetryStore) AddHeartbeat(p i1.HeartbeatPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latestHeartbeat = &p
	s.updateCounter++
}

// AllWeather returns the ring contents oldest-first.
func (s *TelemetryStore) AllWeather() []types.StoredRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.StoredRecord, len(s.records))
	copy(out, s.records)
	return out
}

// LatestWeather returns the newest record, if any.
func (s *TelemetryStore) LatestWeather() (types.StoredRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return types.StoredRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

// RecentWeather returns the newest n records oldest-first. n <= 0 means
// everything.
func (s *TelemetryStore) RecentWeather(n int) []types.StoredRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if n > 0 && n < len(s.records) {
		start = len(s.records) - n
	}
	out := make([]types.StoredRecord, len(s.records)-start)
	copy(out, s.records[start:])
	return out
}

// WeatherCount returns the number of records in the ring.
func (s *TelemetryStore) WeatherCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// LatestTowerTilt returns a snapshot of the per-component tilt cache.
func (s *TelemetryStore) LatestTowerTilt() map[string]i1.TowerTiltPayload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]i1.TowerTiltPayload, len(s.latestTilt))
	for k, v := range s.latestTilt {
		out[k] = v
	}
	return out
}

// LatestHeartbeat returns the most recent heartbeat, if any.
func (s *TelemetryStore) LatestHeartbeat() (i1.HeartbeatPayload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latestHeartbeat == nil {
		return i1.HeartbeatPayload{}, false
	}
	return *s.latestHeartbeat, true
}

// DataInfo summarizes store state for the read API.
func (s *TelemetryStore) DataInfo() types.DataInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := types.DataInfo{
		SourceType:     "i1",
		Records:        len(s.records),
		AlertThreshold: s.alertThreshold,
		AlertTimeout:   s.alertTimeout,
	}
	if len(s.records) > 0 {
		info.LatestTimestamp = s.records[len(s.records)-1].TimestampBeijing
	}
	return info
}

// NewCursor returns a change cursor at position zero: the first Updated
// call reports true if the store has ever been written.
func (s *TelemetryStore) NewCursor() *UpdateCursor {
	return &UpdateCursor{store: s}
}

// UpdateCursor answers "has anything changed since I last asked?" for a
// single consumer. Each consumer owns its cursor; cursors do not affect
// one another.
type UpdateCursor struct {
	store *TelemetryStore
	seen  uint64
}

// Updated reports whether any write happened since the previous call,
// then advances the cursor.
func (c *UpdateCursor) Updated() bool {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.updateCounter != c.seen {
		c.seen = c.store.updateCounter
		return true
	}
	return false
}

// wireFlagLocked implements the fusion rule: flag 1 iff the component
// has an active alert no older than the timeout relative to the weather
// sample's own timestamp. Caller holds the lock.
func (s *TelemetryStore) wireFlagLocked(component string, ts uint32) int {
	entry, ok := s.alerts[component]
	if !ok || !entry.active {
		return 0
	}
	if int64(ts)-int64(entry.timestamp) > int64(s.alertTimeout) {
		return 0
	}
	return 1
}

func formatBeijing(ts uint32) string {
	return time.Unix(int64(ts), 0).In(beijing).Format("2006-01-02 15:04")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
