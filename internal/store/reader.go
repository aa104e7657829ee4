package store

import (
	"github.com/linescope/linescope/internal/types"
	"github.com/linescope/linescope/pkg/i1"
)

// Reader is the read-only view handed to collaborators such as the HTTP
// layer. Every method returns a snapshot; mutating a returned value has
// no effect on the store.
type Reader interface {
	AllWeather() []types.StoredRecord
	LatestWeather() (types.StoredRecord, bool)
	RecentWeather(n int) []types.StoredRecord
	WeatherCount() int
	LatestTowerTilt() map[string]i1.TowerTiltPayload
	LatestHeartbeat() (i1.HeartbeatPayload, bool)
	DataInfo() types.DataInfo
	NewCursor() *UpdateCursor
}

var _ Reader = (*TelemetryStore)(nil)
