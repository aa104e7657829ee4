// Package types defines the fused telemetry records shared between the
// store and its consumers.
package types

// StoredRecord is one fused weather observation. The legacy field names
// (sway speed, lux, and friends) are what the dashboard grew up with;
// they are kept verbatim so downstream consumers keep working, with the
// full weather fields alongside them.
type StoredRecord struct {
	TimestampBeijing       string  `json:"timestamp_Beijing"`
	SwaySpeedDps           float64 `json:"sway_speed_dps"`
	TemperatureC           float64 `json:"temperature_C"`
	HumidityRH             float64 `json:"humidity_RH"`
	PressureHPa            float64 `json:"pressure_hPa"`
	Lux                    float64 `json:"lux"`
	WireForeignObject      int     `json:"wire_foreign_object"`
	ComponentID            string  `json:"component_id"`
	FrameNo                uint8   `json:"frame_no"`
	WindSpeedAvg10Min      float64 `json:"wind_speed_avg_10min"`
	WindDirectionDeg       float64 `json:"wind_direction_deg"`
	WindSpeedMax           float64 `json:"wind_speed_max"`
	WindSpeedExtreme       float64 `json:"wind_speed_extreme"`
	PrecipitationMM        float64 `json:"precipitation_mm"`
	PrecipitationIntensity float64 `json:"precipitation_intensity_mm_min"`
}

// DataInfo summarizes store state for the read API.
type DataInfo struct {
	SourceType      string  `json:"source_type"`
	Records         int     `json:"records"`
	LatestTimestamp string  `json:"latest_timestamp,omitempty"`
	AlertThreshold  float64 `json:"line_temp_threshold"`
	AlertTimeout    int     `json:"line_temp_timeout"`
}
