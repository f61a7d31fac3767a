package application

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shambasecure/auth-service/internal/domain"
)

// SensorReading is one simulated greenhouse sample.
type SensorReading struct {
	Timestamp    time.Time `json:"timestamp"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	SoilMoisture float64   `json:"soilMoisture"`
}

// SensorStats summarises a window of readings per metric.
type SensorStats struct {
	Temperature  MetricStats `json:"temperature"`
	Humidity     MetricStats `json:"humidity"`
	SoilMoisture MetricStats `json:"soilMoisture"`
	SampleCount  int         `json:"sampleCount"`
	From         time.Time   `json:"from"`
	To           time.Time   `json:"to"`
}

type MetricStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	Current float64 `json:"current"`
}

// SensorMeta identifies the simulated greenhouse.
type SensorMeta struct {
	GreenhouseID string `json:"greenhouseId"`
	Location     string `json:"location"`
}

type metricRange struct {
	min, max, base float64
	// step is the largest per-sample drift; keeps consecutive readings
	// plausible instead of jumping across the whole range.
	step float64
}

var (
	tempRange     = metricRange{min: 18, max: 32, base: 25, step: 0.8}
	humidityRange = metricRange{min: 40, max: 85, base: 65, step: 2.0}
	soilRange     = metricRange{min: 30, max: 70, base: 55, step: 1.5}
)

// SensorService fabricates greenhouse telemetry with a bounded random walk.
// Each metric drifts from its previous value and is pulled gently back toward
// its base, so series look like real sensor traces rather than noise.
type SensorService struct {
	mu    sync.Mutex
	rng   *rand.Rand
	last  SensorReading
	meta  SensorMeta
	nowFn func() time.Time
}

func NewSensorService(seed int64) *SensorService {
	s := &SensorService{
		rng: rand.New(rand.NewSource(seed)),
		meta: SensorMeta{
			GreenhouseID: "GH-001",
			Location:     "Nairobi",
		},
		nowFn: func() time.Time { return time.Now().UTC() },
	}
	s.last = SensorReading{
		Temperature:  tempRange.base,
		Humidity:     humidityRange.base,
		SoilMoisture: soilRange.base,
	}
	return s
}

func (s *SensorService) Meta() SensorMeta {
	return s.meta
}

// Latest advances the walk one step and returns the new sample.
func (s *SensorService) Latest() SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = s.step(s.last, s.nowFn())
	return s.last
}

// History returns a synthetic series covering rangeStr at intervalStr
// spacing, ending at the current reading. Supported ranges are 1h, 6h, 24h
// and 7d; intervals are 5m, 15m, 30m, 1h and 6h.
func (s *SensorService) History(rangeStr, intervalStr string) ([]SensorReading, error) {
	span, err := parseSensorRange(rangeStr)
	if err != nil {
		return nil, err
	}
	interval, err := parseSensorInterval(intervalStr)
	if err != nil {
		return nil, err
	}
	if interval > span {
		return nil, fmt.Errorf("%w: interval exceeds range", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	count := int(span/interval) + 1
	now := s.nowFn()
	series := make([]SensorReading, count)
	reading := SensorReading{
		Temperature:  s.last.Temperature,
		Humidity:     s.last.Humidity,
		SoilMoisture: s.last.SoilMoisture,
	}
	for i := 0; i < count; i++ {
		reading = s.step(reading, now.Add(-span+time.Duration(i)*interval))
		series[i] = reading
	}
	s.last = series[count-1]
	return series, nil
}

// Stats walks a 24h window at 30m spacing and aggregates it.
func (s *SensorService) Stats() (SensorStats, error) {
	series, err := s.History("24h", "30m")
	if err != nil {
		return SensorStats{}, err
	}
	current := series[len(series)-1]
	return SensorStats{
		Temperature:  aggregate(series, func(r SensorReading) float64 { return r.Temperature }, current.Temperature),
		Humidity:     aggregate(series, func(r SensorReading) float64 { return r.Humidity }, current.Humidity),
		SoilMoisture: aggregate(series, func(r SensorReading) float64 { return r.SoilMoisture }, current.SoilMoisture),
		SampleCount:  len(series),
		From:         series[0].Timestamp,
		To:           current.Timestamp,
	}, nil
}

func (s *SensorService) step(prev SensorReading, at time.Time) SensorReading {
	return SensorReading{
		Timestamp:    at,
		Temperature:  s.walk(prev.Temperature, tempRange),
		Humidity:     s.walk(prev.Humidity, humidityRange),
		SoilMoisture: s.walk(prev.SoilMoisture, soilRange),
	}
}

func (s *SensorService) walk(prev float64, r metricRange) float64 {
	drift := (s.rng.Float64()*2 - 1) * r.step
	pull := (r.base - prev) * 0.05
	next := prev + drift + pull
	next = math.Max(r.min, math.Min(r.max, next))
	return math.Round(next*10) / 10
}

func aggregate(series []SensorReading, pick func(SensorReading) float64, current float64) MetricStats {
	stats := MetricStats{Min: math.MaxFloat64, Max: -math.MaxFloat64, Current: current}
	sum := 0.0
	for _, r := range series {
		v := pick(r)
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
		sum += v
	}
	stats.Average = math.Round(sum/float64(len(series))*10) / 10
	return stats
}

func parseSensorRange(s string) (time.Duration, error) {
	switch s {
	case "", "24h":
		return 24 * time.Hour, nil
	case "1h":
		return time.Hour, nil
	case "6h":
		return 6 * time.Hour, nil
	case "7d":
		return 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("%w: unsupported range %q", domain.ErrValidation, s)
}

func parseSensorInterval(s string) (time.Duration, error) {
	switch s {
	case "", "30m":
		return 30 * time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "6h":
		return 6 * time.Hour, nil
	}
	return 0, fmt.Errorf("%w: unsupported interval %q", domain.ErrValidation, s)
}
