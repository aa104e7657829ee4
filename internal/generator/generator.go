// Package generator fabricates plausible weather telemetry when no real
// sensors are connected, writing through the same store ingest path the
// TCP server uses so every downstream consumer behaves identically.
package generator

import (
	"context"
	"sync"
	"time"

	"github.com/linescope/linescope/internal/store"
	"github.com/linescope/linescope/pkg/i1"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const componentID = "SIM-WS-001"

// Generator periodically synthesizes weather samples. The value ranges
// mirror what the real fleet reports: temperature around 22 °C, humidity
// around 60 %RH, pressure around 1013 hPa, and an occasional simulated
// conductor-temperature alert so the foreign-object fusion path stays
// exercised.
type Generator struct {
	store    *store.TelemetryStore
	interval time.Duration
	logger   *zap.SugaredLogger

	temperature distuv.Normal
	humidity    distuv.Normal
	pressure    distuv.Normal
	wind        distuv.Uniform
	gustChance  distuv.Uniform
	rng         *rand.Rand
}

// New creates a Generator writing into st every interval.
func New(st *store.TelemetryStore, interval time.Duration, logger *zap.SugaredLogger) *Generator {
	src := rand.NewSource(uint64(time.Now().UnixNano()))
	return &Generator{
		store:       st,
		interval:    interval,
		logger:      logger,
		temperature: distuv.Normal{Mu: 22.0, Sigma: 5.0, Src: src},
		humidity:    distuv.Normal{Mu: 60.0, Sigma: 15.0, Src: src},
		pressure:    distuv.Normal{Mu: 1013.0, Sigma: 6.0, Src: src},
		wind:        distuv.Uniform{Min: 5, Max: 35, Src: src},
		gustChance:  distuv.Uniform{Min: 0, Max: 1, Src: src},
		rng:         rand.New(src),
	}
}

// Start runs the generation loop until ctx is cancelled. One sample is
// emitted immediately so the read API has data from the first request.
func (g *Generator) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		g.logger.Infof("synthetic generator started, interval %s", g.interval)
		g.emit()

		ticker := time.NewTicker(g.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				g.logger.Info("synthetic generator stopped")
				return
			case <-ticker.C:
				g.emit()
			}
		}
	}()
}

// emit writes one synthetic sample through the normal ingest path.
func (g *Generator) emit() {
	now := uint32(time.Now().Unix())

	// Roughly one alert in twenty samples, hot enough to trip the
	// default threshold.
	if g.gustChance.Rand() < 0.05 {
		g.store.AddLineTemperature(i1.LineTemperaturePayload{
			Component:       componentID,
			UnitSum:         1,
			UnitNo:          1,
			TimeStamp:       now,
			LineTemperature: float32(80 + g.wind.Rand()),
		})
	}

	wind := g.wind.Rand()
	if g.gustChance.Rand() < 0.05 {
		wind += 50 + 150*g.gustChance.Rand()
	}

	rec := g.store.AddWeather(i1.WeatherPayload{
		Component:              componentID,
		TimeStamp:              now,
		AvgWindSpeed:           float32(clamp(wind, 0, 500)),
		AvgWindDirection:       uint16(g.rng.Intn(360)),
		MaxWindSpeed:           float32(clamp(wind*1.4, 0, 500)),
		ExtremeWindSpeed:       float32(clamp(wind*1.8, 0, 500)),
		StandardWindSpeed:      float32(clamp(wind*0.9, 0, 500)),
		AirTemperature:         float32(clamp(g.temperature.Rand(), -25, 40)),
		Humidity:               float32(clamp(g.humidity.Rand(), 5, 100)),
		AirPressure:            float32(clamp(g.pressure.Rand(), 900, 1050)),
		RadiationIntensity:     uint16(10000 * pow3(g.gustChance.Rand())),
	}, 0)

	g.logger.Debugf("synthetic sample stored: ts=%s temp=%.1f", rec.TimestampBeijing, rec.TemperatureC)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pow3(v float64) float64 { return v * v * v }
