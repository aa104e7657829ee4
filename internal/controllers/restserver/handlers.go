package restserver

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/linescope/linescope/internal/store"
	"github.com/linescope/linescope/internal/types"
	"github.com/linescope/linescope/pkg/responseformat"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// Handlers holds the request handlers and their shared state.
type Handlers struct {
	store     store.Reader
	cursor    *store.UpdateCursor
	formatter *responseformat.Formatter
	logger    *zap.SugaredLogger

	mu          sync.Mutex
	lastUpdated string
}

// refreshLastUpdated advances the staleness stamp whenever the store has
// new writes. The stamp rides along on wrapped responses.
func (h *Handlers) refreshLastUpdated() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor.Updated() || h.lastUpdated == "" {
		h.lastUpdated = time.Now().UTC().Format(time.RFC3339)
	}
	return h.lastUpdated
}

// GetSensorData returns every fused weather record, oldest first.
func (h *Handlers) GetSensorData(w http.ResponseWriter, req *http.Request) {
	records := h.store.AllWeather()
	if err := h.formatter.WriteResponse(w, req, records); err != nil {
		h.logger.Errorf("error writing sensor data response: %v", err)
	}
}

// GetSensors returns the newest records under a rows/count envelope.
// GET /api/sensors?limit=96 — limit <= 0 or absent means everything.
func (h *Handlers) GetSensors(w http.ResponseWriter, req *http.Request) {
	limit := 0
	if raw := req.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil && n > 0 {
			limit = n
		}
	}

	rows := h.store.RecentWeather(limit)
	payload := map[string]any{
		"rows":  rows,
		"count": len(rows),
	}
	if err := h.formatter.WriteWrapped(w, req, h.refreshLastUpdated(), payload); err != nil {
		h.logger.Errorf("error writing sensors response: %v", err)
	}
}

// GetSensorsLatest returns the newest record, or 204 when there is none.
func (h *Handlers) GetSensorsLatest(w http.ResponseWriter, req *http.Request) {
	rec, ok := h.store.LatestWeather()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.formatter.WriteResponse(w, req, rec); err != nil {
		h.logger.Errorf("error writing latest sensor response: %v", err)
	}
}

// GetTowerTilt returns the per-component latest tilt snapshot.
func (h *Handlers) GetTowerTilt(w http.ResponseWriter, req *http.Request) {
	if err := h.formatter.WriteResponse(w, req, h.store.LatestTowerTilt()); err != nil {
		h.logger.Errorf("error writing tilt response: %v", err)
	}
}

// GetHeartbeat returns the latest device heartbeat, or 204 when no
// device has reported yet.
func (h *Handlers) GetHeartbeat(w http.ResponseWriter, req *http.Request) {
	hb, ok := h.store.LatestHeartbeat()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.formatter.WriteResponse(w, req, hb); err != nil {
		h.logger.Errorf("error writing heartbeat response: %v", err)
	}
}

// statsSummary is the aggregate block served by GetStats.
type statsSummary struct {
	Records        int     `json:"records"`
	WindSpeedMean  float64 `json:"wind_speed_mean"`
	WindSpeedStdev float64 `json:"wind_speed_stdev"`
	TempMean       float64 `json:"temperature_mean"`
	TempStdev      float64 `json:"temperature_stdev"`
	ForeignObjects int     `json:"foreign_object_records"`
}

// GetStats summarizes the recent window. GET /api/stats?window=96 —
// window <= 0 means the whole ring.
func (h *Handlers) GetStats(w http.ResponseWriter, req *http.Request) {
	window := 0
	if raw := req.URL.Query().Get("window"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			window = n
		}
	}

	records := h.store.RecentWeather(window)
	summary := summarize(records)
	if err := h.formatter.WriteResponse(w, req, summary); err != nil {
		h.logger.Errorf("error writing stats response: %v", err)
	}
}

func summarize(records []types.StoredRecord) statsSummary {
	summary := statsSummary{Records: len(records)}
	if len(records) == 0 {
		return summary
	}

	wind := make([]float64, len(records))
	temp := make([]float64, len(records))
	for i, r := range records {
		wind[i] = r.WindSpeedAvg10Min
		temp[i] = r.TemperatureC
		if r.WireForeignObject != 0 {
			summary.ForeignObjects++
		}
	}

	summary.WindSpeedMean = stat.Mean(wind, nil)
	summary.TempMean = stat.Mean(temp, nil)
	if len(records) > 1 {
		summary.WindSpeedStdev = stat.StdDev(wind, nil)
		summary.TempStdev = stat.StdDev(temp, nil)
	}
	return summary
}

// GetDataInfo reports store metadata.
func (h *Handlers) GetDataInfo(w http.ResponseWriter, req *http.Request) {
	if err := h.formatter.WriteResponse(w, req, h.store.DataInfo()); err != nil {
		h.logger.Errorf("error writing info response: %v", err)
	}
}

// Healthz is the liveness probe.
func (h *Handlers) Healthz(w http.ResponseWriter, req *http.Request) {
	if err := h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}); err != nil {
		h.logger.Errorf("error writing health response: %v", err)
	}
}
